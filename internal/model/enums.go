package model

import "strings"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	// DifficultyMixed is only valid as a practice-test request, never on a question.
	DifficultyMixed Difficulty = "MIXED"
)

// Bands lists the concrete difficulties in presentation order.
var Bands = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return d, true
	}
	return "", false
}

type ContentType string

const (
	ContentLesson   ContentType = "lesson"
	ContentTopic    ContentType = "topic"
	ContentSubtopic ContentType = "subtopic"
)

func ParseContentType(s string) (ContentType, bool) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	switch ct {
	case ContentLesson, ContentTopic, ContentSubtopic:
		return ct, true
	}
	return "", false
}

type SubmissionStatus string

const (
	SubmissionCreated    SubmissionStatus = "CREATED"
	SubmissionInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionFinalized  SubmissionStatus = "FINALIZED"
)

type PaperSource string

const (
	PaperSourceManual   PaperSource = "MANUAL"
	PaperSourceFilter   PaperSource = "FILTER"
	PaperSourcePractice PaperSource = "PRACTICE"
	PaperSourceAdaptive PaperSource = "ADAPTIVE"
)
