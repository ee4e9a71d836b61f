package repository

import (
	"context"
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type ExamPaperRepository struct {
	DB *gorm.DB
}

func NewExamPaperRepository(db *gorm.DB) *ExamPaperRepository {
	return &ExamPaperRepository{DB: db}
}

func (r *ExamPaperRepository) WithTx(tx *gorm.DB) *ExamPaperRepository {
	return &ExamPaperRepository{DB: tx}
}

func (r *ExamPaperRepository) Create(ctx context.Context, paper *model.ExamPaper) error {
	return r.DB.WithContext(ctx).Create(paper).Error
}

func (r *ExamPaperRepository) FindByID(ctx context.Context, id string) (*model.ExamPaper, error) {
	var p model.ExamPaper
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
