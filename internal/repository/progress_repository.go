package repository

import (
	"context"
	"exam_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// CreateIfAbsent inserts p unless a row with the same (user, content) key exists.
// It reports whether a row was inserted.
func (r *ProgressRepository) CreateIfAbsent(ctx context.Context, p *model.PracticeProgress) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_type"}, {Name: "content_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProgressRepository) FindByKey(ctx context.Context, userID uint, ct model.ContentType, contentID string) (*model.PracticeProgress, error) {
	var p model.PracticeProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, ct, contentID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByID(ctx context.Context, id string) (*model.PracticeProgress, error) {
	var p model.PracticeProgress
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.PracticeProgress, error) {
	var p model.PracticeProgress
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.PracticeProgress{}).
		Where("id = ?", id).
		Update("last_accessed_at", at).Error
}

func (r *ProgressRepository) Updates(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.PracticeProgress{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes a progress row together with its sessions.
func (r *ProgressRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("progress_id = ?", id).Delete(&model.PracticeQuestionSession{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.PracticeProgress{}).Error
	})
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uint) ([]model.PracticeProgress, error) {
	var rows []model.PracticeProgress
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]model.PracticeProgress, error) {
	var rows []model.PracticeProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_accessed_at DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CreateSessionIfAbsent inserts s unless (progress, question) already has a session.
func (r *ProgressRepository) CreateSessionIfAbsent(ctx context.Context, s *model.PracticeQuestionSession) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "progress_id"}, {Name: "question_id"}},
		DoNothing: true,
	}).Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProgressRepository) FindSession(ctx context.Context, progressID, questionID string) (*model.PracticeQuestionSession, error) {
	var s model.PracticeQuestionSession
	err := r.DB.WithContext(ctx).
		Where("progress_id = ? AND question_id = ?", progressID, questionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ProgressRepository) FindSessionByID(ctx context.Context, id string) (*model.PracticeQuestionSession, error) {
	var s model.PracticeQuestionSession
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ProgressRepository) UpdateSession(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.PracticeQuestionSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SessionStats aggregates the sessions recorded under one progress row.
type SessionStats struct {
	ProgressID string
	Total      int
	Correct    int
	TimeSpent  int
}

func (r *ProgressRepository) SessionStats(ctx context.Context, progressIDs []string) (map[string]SessionStats, error) {
	stats := make(map[string]SessionStats, len(progressIDs))
	if len(progressIDs) == 0 {
		return stats, nil
	}

	var rows []SessionStats
	err := r.DB.WithContext(ctx).Model(&model.PracticeQuestionSession{}).
		Select(`progress_id, COUNT(*) AS total,
			SUM(CASE WHEN is_correct = ? THEN 1 ELSE 0 END) AS correct,
			COALESCE(SUM(time_spent), 0) AS time_spent`, true).
		Where("progress_id IN ?", progressIDs).
		Group("progress_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats[row.ProgressID] = row
	}
	return stats, nil
}
