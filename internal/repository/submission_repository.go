package repository

import (
	"context"
	"exam_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) WithTx(tx *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: tx}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *model.ExamSubmission) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.ExamSubmission, error) {
	var s model.ExamSubmission
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByIDForUpdate locks the submission row until the surrounding transaction ends.
// SQLite has no row locks; there the single connection serialises writers instead.
func (r *SubmissionRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.ExamSubmission, error) {
	var s model.ExamSubmission
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.ExamSubmission, int64, error) {
	var total int64
	db := r.DB.WithContext(ctx).Model(&model.ExamSubmission{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ExamSubmission
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

// UpsertAnswer writes one answer per (submission, question); a repeat overwrites
// the selection and its correctness.
func (r *SubmissionRepository) UpsertAnswer(ctx context.Context, a *model.ExamAnswer) (*model.ExamAnswer, error) {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_id", "is_correct", "updated_at"}),
	}).Create(a).Error
	if err != nil {
		return nil, err
	}
	// on conflict the generated id is discarded, read back the stored row
	return r.FindAnswer(ctx, a.SubmissionID, a.QuestionID)
}

func (r *SubmissionRepository) FindAnswer(ctx context.Context, submissionID, questionID string) (*model.ExamAnswer, error) {
	var a model.ExamAnswer
	err := r.DB.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *SubmissionRepository) FindAnswers(ctx context.Context, submissionID string) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).Find(&answers).Error
	return answers, err
}

func (r *SubmissionRepository) CountCorrect(ctx context.Context, submissionID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ExamAnswer{}).
		Where("submission_id = ? AND is_correct = ?", submissionID, true).
		Count(&n).Error
	return n, err
}

// MarkInProgress moves a CREATED submission to IN_PROGRESS; other states are left alone.
func (r *SubmissionRepository) MarkInProgress(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.ExamSubmission{}).
		Where("id = ? AND status = ?", id, model.SubmissionCreated).
		Update("status", model.SubmissionInProgress).Error
}

// Finalize applies the score only if the submission is not finalized yet and
// reports whether this call performed the transition.
func (r *SubmissionRepository) Finalize(ctx context.Context, id string, correct int, scorePercent *float64, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.ExamSubmission{}).
		Where("id = ? AND status <> ?", id, model.SubmissionFinalized).
		Updates(map[string]interface{}{
			"status":        model.SubmissionFinalized,
			"submitted_at":  at,
			"correct_count": correct,
			"score_percent": scorePercent,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
