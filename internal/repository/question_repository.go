package repository

import (
	"context"
	"exam_prep_backend/internal/model"
	"fmt"

	"gorm.io/gorm"
)

// QuestionFilter narrows the question pool. Empty fields do not filter.
type QuestionFilter struct {
	SubjectIDs     []string
	LessonIDs      []string
	TopicIDs       []string
	SubtopicIDs    []string
	Difficulty     model.Difficulty
	IsPreviousYear *bool
	Year           *int
	Search         string
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

func (r *QuestionRepository) filtered(ctx context.Context, f QuestionFilter) *gorm.DB {
	db := r.DB.WithContext(ctx).Model(&model.Question{})
	if len(f.SubjectIDs) > 0 {
		db = db.Where("subject_id IN ?", f.SubjectIDs)
	}
	if len(f.LessonIDs) > 0 {
		db = db.Where("lesson_id IN ?", f.LessonIDs)
	}
	if len(f.TopicIDs) > 0 {
		db = db.Where("topic_id IN ?", f.TopicIDs)
	}
	if len(f.SubtopicIDs) > 0 {
		db = db.Where("subtopic_id IN ?", f.SubtopicIDs)
	}
	if f.Difficulty != "" {
		db = db.Where("difficulty = ?", f.Difficulty)
	}
	if f.IsPreviousYear != nil {
		db = db.Where("is_previous_year = ?", *f.IsPreviousYear)
	}
	if f.Year != nil {
		db = db.Where("year_appeared = ?", *f.Year)
	}
	if f.Search != "" {
		db = db.Where("text LIKE ?", "%"+f.Search+"%")
	}
	return db
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("question_options.sort_order ASC, question_options.id ASC")
}

// ListIDs returns matching ids in a stable order (created_at, id).
func (r *QuestionRepository) ListIDs(ctx context.Context, f QuestionFilter) ([]string, error) {
	var ids []string
	err := r.filtered(ctx, f).Order("created_at ASC, id ASC").Pluck("id", &ids).Error
	return ids, err
}

// ExistingIDs returns the subset of ids present in the pool.
func (r *QuestionRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).Preload("Options", preloadOptions).First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByIDs loads questions with options and returns them in the order of ids.
// Unknown ids are skipped.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string, withExplanations bool) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	db := r.DB.WithContext(ctx).Preload("Options", preloadOptions)
	if withExplanations {
		db = db.Preload("Explanations", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_explanations.created_at ASC")
		})
	}
	var rows []model.Question
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]model.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	ordered := make([]model.Question, 0, len(rows))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func (r *QuestionRepository) Page(ctx context.Context, f QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []model.Question
	err := r.filtered(ctx, f).
		Preload("Options", preloadOptions).
		Order("year_appeared DESC, created_at ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&questions).Error
	return questions, total, err
}

var contentColumns = map[model.ContentType]string{
	model.ContentLesson:   "lesson_id",
	model.ContentTopic:    "topic_id",
	model.ContentSubtopic: "subtopic_id",
}

// ContentColumn maps a content type onto the question column that references it.
func ContentColumn(ct model.ContentType) (string, bool) {
	col, ok := contentColumns[ct]
	return col, ok
}

func (r *QuestionRepository) FindByContent(ctx context.Context, ct model.ContentType, contentID string) ([]model.Question, error) {
	col, ok := ContentColumn(ct)
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where(col+" = ?", contentID).
		Order("created_at ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) CountByContent(ctx context.Context, ct model.ContentType, contentID string) (int64, error) {
	col, ok := ContentColumn(ct)
	if !ok {
		return 0, fmt.Errorf("unsupported content type %q", ct)
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Where(col+" = ?", contentID).Count(&n).Error
	return n, err
}

type idCount struct {
	ID    string
	Count int64
}

// CountsBy groups the pool by one of the hierarchy reference columns.
func (r *QuestionRepository) CountsBy(ctx context.Context, column string) (map[string]int64, error) {
	switch column {
	case "subject_id", "lesson_id", "topic_id", "subtopic_id":
	default:
		return nil, fmt.Errorf("cannot group questions by %q", column)
	}

	var rows []idCount
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select(column + " AS id, COUNT(*) AS count").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}
