package model

import "time"

// GroupAccuracy 按科目/专题/子专题聚合后的答题情况
type GroupAccuracy struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"` // 0-100, two decimals
}

type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

type SubjectCount struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
	Count     int64  `json:"count"`
}

// PYQStats is site-wide, not user scoped.
type PYQStats struct {
	Total     int64          `json:"total"`
	ByYear    []YearCount    `json:"byYear"`
	BySubject []SubjectCount `json:"bySubject"`
}

type ContentStats struct {
	TotalQuestions     int        `json:"totalQuestions"`
	CompletedQuestions int        `json:"completedQuestions"`
	Accuracy           float64    `json:"accuracy"`
	TimeSpent          int        `json:"timeSpent"`
	LastAccessed       *time.Time `json:"lastAccessed"`
}

// ContentNode is one node of the subject -> lesson -> topic -> subtopic tree.
type ContentNode struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Name           string         `json:"name"`
	TotalQuestions int64          `json:"totalQuestions"`
	CompletedCount int            `json:"completedCount"`
	IsCompleted    bool           `json:"isCompleted"`
	ProgressID     *string        `json:"progressId,omitempty"`
	LastAccessedAt *time.Time     `json:"lastAccessedAt,omitempty"`
	Children       []*ContentNode `json:"children,omitempty"`
}

type PracticeHistoryItem struct {
	ProgressID         string      `json:"progressId"`
	ContentType        ContentType `json:"contentType"`
	ContentID          string      `json:"contentId"`
	TotalQuestions     int         `json:"totalQuestions"`
	CompletedQuestions int         `json:"completedQuestions"`
	IsCompleted        bool        `json:"isCompleted"`
	Accuracy           float64     `json:"accuracy"`
	TimeSpent          int         `json:"timeSpent"`
	LastAccessedAt     time.Time   `json:"lastAccessedAt"`
}
