package model

import (
	"time"

	"gorm.io/datatypes"
)

// swagger:model PracticeProgress
type PracticeProgress struct {
	UUIDBase
	UserID               uint                        `gorm:"uniqueIndex:idx_practice_progress_key;not null" json:"userId"`
	ContentType          ContentType                 `gorm:"uniqueIndex:idx_practice_progress_key;size:20;not null" json:"contentType"`
	ContentID            string                      `gorm:"uniqueIndex:idx_practice_progress_key;type:varchar(36);not null" json:"contentId"`
	TotalQuestions       int                         `gorm:"default:0" json:"totalQuestions"`
	CompletedQuestions   int                         `gorm:"default:0" json:"completedQuestions"`
	CurrentQuestionIndex int                         `gorm:"default:0" json:"currentQuestionIndex"`
	VisitedQuestions     datatypes.JSONSlice[string] `json:"visitedQuestions"`
	IsCompleted          bool                        `gorm:"default:false" json:"isCompleted"`
	LastAccessedAt       time.Time                   `json:"lastAccessedAt"`
}

func (PracticeProgress) TableName() string {
	return "practice_progress"
}

// HasVisited reports whether questionID is already in the visited set.
func (p *PracticeProgress) HasVisited(questionID string) bool {
	for _, id := range p.VisitedQuestions {
		if id == questionID {
			return true
		}
	}
	return false
}

// swagger:model PracticeQuestionSession
type PracticeQuestionSession struct {
	UUIDBase
	ProgressID string         `gorm:"uniqueIndex:idx_practice_session_key;type:varchar(36);not null" json:"progressId"`
	QuestionID string         `gorm:"uniqueIndex:idx_practice_session_key;type:varchar(36);not null" json:"questionId"`
	UserAnswer datatypes.JSON `json:"userAnswer,omitempty"`
	IsCorrect  bool           `gorm:"default:false" json:"isCorrect"`
	TimeSpent  int            `gorm:"default:0" json:"timeSpent"` // seconds
	IsChecked  bool           `gorm:"default:false" json:"isChecked"`
}

func (PracticeQuestionSession) TableName() string {
	return "practice_question_sessions"
}
