package model

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSnapshotImmutable = errors.New("exam paper question snapshot is immutable")

// ExamPaper holds an ordered question-id snapshot fixed at creation time.
// swagger:model ExamPaper
type ExamPaper struct {
	UUIDBase
	Title        string                     `gorm:"size:255;not null" json:"title"`
	Description  string                     `gorm:"type:text" json:"description"`
	SubjectIDs   datatypes.JSONSlice[string] `json:"subjectIds"`
	TopicIDs     datatypes.JSONSlice[string] `json:"topicIds"`
	SubtopicIDs  datatypes.JSONSlice[string] `json:"subtopicIds"`
	QuestionIDs  datatypes.JSONSlice[string] `gorm:"not null" json:"questionIds"`
	TimeLimitMin int                        `gorm:"default:0" json:"timeLimitMin"` // informational, not enforced
	Source       PaperSource                `gorm:"size:20;default:'MANUAL'" json:"source"`
	CreatedBy    uint                       `gorm:"index" json:"createdBy"`
}

func (ExamPaper) TableName() string {
	return "exam_papers"
}

func (p *ExamPaper) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("QuestionIDs") {
		return ErrSnapshotImmutable
	}
	return nil
}

func (p *ExamPaper) Contains(questionID string) bool {
	for _, id := range p.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}
