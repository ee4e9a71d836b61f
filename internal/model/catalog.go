package model

// Catalog tables are owned by the content service; this service only reads them.

// swagger:model Stream
type Stream struct {
	UUIDBase
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Stream) TableName() string {
	return "streams"
}

// swagger:model Subject
type Subject struct {
	UUIDBase
	StreamID string `gorm:"index;type:varchar(36)" json:"streamId"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Order    int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Subject) TableName() string {
	return "subjects"
}

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	SubjectID string `gorm:"index;type:varchar(36)" json:"subjectId"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Order     int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model Topic
type Topic struct {
	UUIDBase
	LessonID string `gorm:"index;type:varchar(36)" json:"lessonId"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Order    int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Topic) TableName() string {
	return "topics"
}

// swagger:model Subtopic
type Subtopic struct {
	UUIDBase
	TopicID string `gorm:"index;type:varchar(36)" json:"topicId"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Order   int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Subtopic) TableName() string {
	return "subtopics"
}
