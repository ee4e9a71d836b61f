package repository

import (
	"context"
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository reads the content hierarchy. Writes belong to the content service.
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) FindSubject(ctx context.Context, id string) (*model.Subject, error) {
	var s model.Subject
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CatalogRepository) subjectIDs(ctx context.Context, streamID string) *gorm.DB {
	db := r.DB.WithContext(ctx).Model(&model.Subject{}).Select("id")
	if streamID != "" {
		db = db.Where("stream_id = ?", streamID)
	}
	return db
}

func (r *CatalogRepository) lessonIDs(ctx context.Context, streamID string) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Lesson{}).Select("id").
		Where("subject_id IN (?)", r.subjectIDs(ctx, streamID))
}

func (r *CatalogRepository) topicIDs(ctx context.Context, streamID string) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Topic{}).Select("id").
		Where("lesson_id IN (?)", r.lessonIDs(ctx, streamID))
}

// Each level query is self-contained so the four can run in parallel.
// An empty streamID means every stream.

func (r *CatalogRepository) Subjects(ctx context.Context, streamID string) ([]model.Subject, error) {
	var rows []model.Subject
	db := r.DB.WithContext(ctx)
	if streamID != "" {
		db = db.Where("stream_id = ?", streamID)
	}
	err := db.Order("sort_order ASC, name ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *CatalogRepository) Lessons(ctx context.Context, streamID string) ([]model.Lesson, error) {
	var rows []model.Lesson
	err := r.DB.WithContext(ctx).
		Where("subject_id IN (?)", r.subjectIDs(ctx, streamID)).
		Order("sort_order ASC, name ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *CatalogRepository) Topics(ctx context.Context, streamID string) ([]model.Topic, error) {
	var rows []model.Topic
	err := r.DB.WithContext(ctx).
		Where("lesson_id IN (?)", r.lessonIDs(ctx, streamID)).
		Order("sort_order ASC, name ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *CatalogRepository) Subtopics(ctx context.Context, streamID string) ([]model.Subtopic, error) {
	var rows []model.Subtopic
	err := r.DB.WithContext(ctx).
		Where("topic_id IN (?)", r.topicIDs(ctx, streamID)).
		Order("sort_order ASC, name ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
