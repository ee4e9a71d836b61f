package model

import "time"

// swagger:model ExamSubmission
type ExamSubmission struct {
	UUIDBase
	UserID         uint             `gorm:"index;not null" json:"userId"`
	ExamPaperID    string           `gorm:"index;type:varchar(36);not null" json:"examPaperId"`
	Status         SubmissionStatus `gorm:"size:20;index;default:'CREATED'" json:"status"`
	StartedAt      time.Time        `json:"startedAt"`
	SubmittedAt    *time.Time       `json:"submittedAt"`
	TotalQuestions int              `gorm:"default:0" json:"totalQuestions"`
	CorrectCount   int              `gorm:"default:0" json:"correctCount"`
	ScorePercent   *float64         `json:"scorePercent"`
}

func (ExamSubmission) TableName() string {
	return "exam_submissions"
}

func (s *ExamSubmission) IsFinalized() bool {
	return s.Status == SubmissionFinalized
}

// swagger:model ExamAnswer
type ExamAnswer struct {
	UUIDBase
	SubmissionID     string  `gorm:"uniqueIndex:idx_exam_answer_submission_question;type:varchar(36);not null" json:"submissionId"`
	QuestionID       string  `gorm:"uniqueIndex:idx_exam_answer_submission_question;type:varchar(36);not null" json:"questionId"`
	SelectedOptionID *string `gorm:"type:varchar(36)" json:"selectedOptionId"`
	IsCorrect        bool    `gorm:"default:false" json:"isCorrect"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
