package model

// swagger:model Question
type Question struct {
	UUIDBase
	Text           string     `gorm:"type:text;not null" json:"text"`
	Difficulty     Difficulty `gorm:"size:10;index;not null" json:"difficulty"`
	SubjectID      *string    `gorm:"index;type:varchar(36)" json:"subjectId"`
	LessonID       *string    `gorm:"index;type:varchar(36)" json:"lessonId"`
	TopicID        *string    `gorm:"index;type:varchar(36)" json:"topicId"`
	SubtopicID     *string    `gorm:"index;type:varchar(36)" json:"subtopicId"`
	IsPreviousYear bool       `gorm:"index;default:false" json:"isPreviousYear"`
	YearAppeared   *int       `gorm:"index" json:"yearAppeared"`
	Explanation    string     `gorm:"type:text" json:"explanation,omitempty"`

	Options      []QuestionOption      `gorm:"foreignKey:QuestionID" json:"options"`
	Explanations []QuestionExplanation `gorm:"foreignKey:QuestionID" json:"explanations,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionID returns the id of the option flagged correct, or "" when none is.
func (q *Question) CorrectOptionID() string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return ""
}

func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// swagger:model QuestionOption
type QuestionOption struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Order      int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// QuestionExplanation is an alternative explanation contributed for a question.
// swagger:model QuestionExplanation
type QuestionExplanation struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Author     string `gorm:"size:100" json:"author,omitempty"`
}

func (QuestionExplanation) TableName() string {
	return "question_explanations"
}
