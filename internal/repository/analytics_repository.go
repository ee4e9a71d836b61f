package repository

import (
	"context"
	"exam_prep_backend/internal/model"
	"fmt"

	"gorm.io/gorm"
)

// GroupLevel selects which hierarchy reference answers are grouped by.
type GroupLevel string

const (
	GroupBySubject  GroupLevel = "subject"
	GroupByTopic    GroupLevel = "topic"
	GroupBySubtopic GroupLevel = "subtopic"
)

var groupTargets = map[GroupLevel]struct{ column, table string }{
	GroupBySubject:  {"subject_id", "subjects"},
	GroupByTopic:    {"topic_id", "topics"},
	GroupBySubtopic: {"subtopic_id", "subtopics"},
}

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// GroupCount is the raw per-group tally before accuracy is derived.
type GroupCount struct {
	ID        string
	Name      string
	Attempted int
	Correct   int
}

// AnswerCountsByGroup tallies a user's answers on finalized submissions.
// Skipped answers do not count as attempted. Ordered by group id.
func (r *AnalyticsRepository) AnswerCountsByGroup(ctx context.Context, userID uint, level GroupLevel) ([]GroupCount, error) {
	target, ok := groupTargets[level]
	if !ok {
		return nil, fmt.Errorf("unknown analytics level %q", level)
	}

	var rows []GroupCount
	err := r.DB.WithContext(ctx).
		Table("exam_answers AS a").
		Select(fmt.Sprintf(`q.%[1]s AS id, COALESCE(g.name, '') AS name,
			SUM(CASE WHEN a.selected_option_id IS NOT NULL THEN 1 ELSE 0 END) AS attempted,
			SUM(CASE WHEN a.is_correct = ? THEN 1 ELSE 0 END) AS correct`, target.column), true).
		Joins("JOIN exam_submissions AS es ON es.id = a.submission_id").
		Joins("JOIN questions AS q ON q.id = a.question_id").
		Joins(fmt.Sprintf("LEFT JOIN %s AS g ON g.id = q.%s", target.table, target.column)).
		Where("es.user_id = ? AND es.status = ?", userID, model.SubmissionFinalized).
		Where(fmt.Sprintf("q.%s IS NOT NULL", target.column)).
		Group(fmt.Sprintf("q.%s, g.name", target.column)).
		Order(fmt.Sprintf("q.%s ASC", target.column)).
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) PYQTotal(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("is_previous_year = ?", true).
		Count(&n).Error
	return n, err
}

func (r *AnalyticsRepository) PYQByYear(ctx context.Context) ([]model.YearCount, error) {
	var rows []model.YearCount
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("year_appeared AS year, COUNT(*) AS count").
		Where("is_previous_year = ? AND year_appeared IS NOT NULL", true).
		Group("year_appeared").
		Order("year_appeared DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) PYQBySubject(ctx context.Context) ([]model.SubjectCount, error) {
	var rows []model.SubjectCount
	err := r.DB.WithContext(ctx).
		Table("questions AS q").
		Select("q.subject_id AS subject_id, COALESCE(s.name, '') AS name, COUNT(*) AS count").
		Joins("LEFT JOIN subjects AS s ON s.id = q.subject_id").
		Where("q.is_previous_year = ? AND q.subject_id IS NOT NULL", true).
		Group("q.subject_id, s.name").
		Order("q.subject_id ASC").
		Scan(&rows).Error
	return rows, err
}
