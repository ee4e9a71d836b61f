package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/tracing"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProgressService struct {
	DB           *gorm.DB
	ProgressRepo *repository.ProgressRepository
	QuestionRepo *repository.QuestionRepository
	CatalogRepo  *repository.CatalogRepository
	Redis        *redis.Client
	CountsTTL    time.Duration

	now func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	progressRepo *repository.ProgressRepository,
	questionRepo *repository.QuestionRepository,
	catalogRepo *repository.CatalogRepository,
	rdb *redis.Client,
	countsTTL time.Duration,
) *ProgressService {
	return &ProgressService{
		DB:           db,
		ProgressRepo: progressRepo,
		QuestionRepo: questionRepo,
		CatalogRepo:  catalogRepo,
		Redis:        rdb,
		CountsTTL:    countsTTL,
		now:          time.Now,
	}
}

func parseContentType(s string) (model.ContentType, error) {
	ct, ok := model.ParseContentType(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", util.ErrUnsupportedContentType, s)
	}
	return ct, nil
}

func (s *ProgressService) questionCounts(ctx context.Context) (questionCounts, error) {
	var counts questionCounts
	if cacheGet(ctx, s.Redis, cacheKeyQuestionCounts, &counts) {
		return counts, nil
	}

	var err error
	if counts.Subjects, err = s.QuestionRepo.CountsBy(ctx, "subject_id"); err != nil {
		return counts, err
	}
	if counts.Lessons, err = s.QuestionRepo.CountsBy(ctx, "lesson_id"); err != nil {
		return counts, err
	}
	if counts.Topics, err = s.QuestionRepo.CountsBy(ctx, "topic_id"); err != nil {
		return counts, err
	}
	if counts.Subtopics, err = s.QuestionRepo.CountsBy(ctx, "subtopic_id"); err != nil {
		return counts, err
	}

	cacheSet(ctx, s.Redis, cacheKeyQuestionCounts, counts, s.CountsTTL)
	return counts, nil
}

// GetContentTree loads each hierarchy level separately and assembles the tree
// in memory with the user's progress overlaid.
func (s *ProgressService) GetContentTree(ctx context.Context, userID uint, streamID string) ([]*model.ContentNode, error) {
	ctx, span := tracing.StartSpan(ctx, "ProgressService.GetContentTree")
	defer span.End()

	var (
		levels   contentLevels
		counts   questionCounts
		progress []model.PracticeProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		levels.subjects, err = s.CatalogRepo.Subjects(gctx, streamID)
		return err
	})
	g.Go(func() (err error) {
		levels.lessons, err = s.CatalogRepo.Lessons(gctx, streamID)
		return err
	})
	g.Go(func() (err error) {
		levels.topics, err = s.CatalogRepo.Topics(gctx, streamID)
		return err
	})
	g.Go(func() (err error) {
		levels.subtopics, err = s.CatalogRepo.Subtopics(gctx, streamID)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.questionCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		progress, err = s.ProgressRepo.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assembleContentTree(levels, counts, progressOverlay(progress)), nil
}

func (s *ProgressService) GetContentQuestions(ctx context.Context, contentType, contentID string) ([]model.Question, error) {
	ct, err := parseContentType(contentType)
	if err != nil {
		return nil, err
	}
	return s.QuestionRepo.FindByContent(ctx, ct, contentID)
}

type StartProgressRequest struct {
	ContentType    string `json:"contentType" binding:"required"`
	ContentID      string `json:"contentId" binding:"required"`
	TotalQuestions int    `json:"totalQuestions"`
}

// StartPracticeProgress returns the progress row for the content, creating it on
// first use. An existing row only has lastAccessedAt refreshed.
func (s *ProgressService) StartPracticeProgress(ctx context.Context, userID uint, req StartProgressRequest) (*model.PracticeProgress, error) {
	ct, err := parseContentType(req.ContentType)
	if err != nil {
		return nil, err
	}
	if req.ContentID == "" {
		return nil, fmt.Errorf("%w: contentId is required", util.ErrInvalidArgument)
	}
	if req.TotalQuestions < 0 {
		return nil, fmt.Errorf("%w: totalQuestions must not be negative", util.ErrInvalidArgument)
	}

	total := req.TotalQuestions
	if total == 0 {
		n, err := s.QuestionRepo.CountByContent(ctx, ct, req.ContentID)
		if err != nil {
			return nil, err
		}
		total = int(n)
	}

	now := s.now()
	created, err := s.ProgressRepo.CreateIfAbsent(ctx, &model.PracticeProgress{
		UserID:           userID,
		ContentType:      ct,
		ContentID:        req.ContentID,
		TotalQuestions:   total,
		VisitedQuestions: datatypes.JSONSlice[string]{},
		LastAccessedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	p, err := s.ProgressRepo.FindByKey(ctx, userID, ct, req.ContentID)
	if err != nil {
		return nil, err
	}
	if !created {
		if err := s.ProgressRepo.Touch(ctx, p.ID, now); err != nil {
			return nil, err
		}
		p.LastAccessedAt = now
	}
	return p, nil
}

func (s *ProgressService) ownedProgress(ctx context.Context, repo *repository.ProgressRepository, userID uint, progressID string, lock bool) (*model.PracticeProgress, error) {
	var (
		p   *model.PracticeProgress
		err error
	)
	if lock {
		p, err = repo.FindByIDForUpdate(ctx, progressID)
	} else {
		p, err = repo.FindByID(ctx, progressID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, util.ErrForbidden
	}
	return p, nil
}

type ProgressPatch struct {
	TotalQuestions       *int      `json:"totalQuestions"`
	CompletedQuestions   *int      `json:"completedQuestions"`
	CurrentQuestionIndex *int      `json:"currentQuestionIndex"`
	VisitedQuestions     *[]string `json:"visitedQuestions"`
	IsCompleted          *bool     `json:"isCompleted"`
}

func nonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must not be negative", util.ErrInvalidArgument, name)
	}
	return nil
}

// UpdatePracticeProgress applies a partial update. Without an explicit
// isCompleted the row completes once completedQuestions reaches a non-zero total.
func (s *ProgressService) UpdatePracticeProgress(ctx context.Context, userID uint, progressID string, patch ProgressPatch) (*model.PracticeProgress, error) {
	for name, v := range map[string]*int{
		"totalQuestions":       patch.TotalQuestions,
		"completedQuestions":   patch.CompletedQuestions,
		"currentQuestionIndex": patch.CurrentQuestionIndex,
	} {
		if err := nonNegative(name, v); err != nil {
			return nil, err
		}
	}

	var updated *model.PracticeProgress
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ProgressRepo.WithTx(tx)
		p, err := s.ownedProgress(ctx, repo, userID, progressID, true)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{"last_accessed_at": s.now()}
		if patch.TotalQuestions != nil {
			fields["total_questions"] = *patch.TotalQuestions
			p.TotalQuestions = *patch.TotalQuestions
		}
		if patch.CompletedQuestions != nil {
			fields["completed_questions"] = *patch.CompletedQuestions
			p.CompletedQuestions = *patch.CompletedQuestions
		}
		if patch.CurrentQuestionIndex != nil {
			fields["current_question_index"] = *patch.CurrentQuestionIndex
		}
		if patch.VisitedQuestions != nil {
			fields["visited_questions"] = datatypes.JSONSlice[string](dedupe(*patch.VisitedQuestions))
		}
		if patch.IsCompleted != nil {
			fields["is_completed"] = *patch.IsCompleted
		} else if p.TotalQuestions > 0 && p.CompletedQuestions >= p.TotalQuestions {
			fields["is_completed"] = true
		}

		if err := repo.Updates(ctx, progressID, fields); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, progressID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProgressService) DeletePracticeProgress(ctx context.Context, userID uint, progressID string) error {
	if _, err := s.ownedProgress(ctx, s.ProgressRepo, userID, progressID, false); err != nil {
		return err
	}
	return s.ProgressRepo.Delete(ctx, progressID)
}

type SessionRequest struct {
	QuestionID string          `json:"questionId" binding:"required"`
	UserAnswer json.RawMessage `json:"userAnswer" swaggertype:"object"`
	IsCorrect  *bool           `json:"isCorrect"`
	TimeSpent  *int            `json:"timeSpent"`
	IsChecked  *bool           `json:"isChecked"`
}

type SessionPatch struct {
	UserAnswer json.RawMessage `json:"userAnswer" swaggertype:"object"`
	IsCorrect  *bool           `json:"isCorrect"`
	TimeSpent  *int            `json:"timeSpent"`
	IsChecked  *bool           `json:"isChecked"`
}

func (p SessionPatch) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if len(p.UserAnswer) > 0 {
		fields["user_answer"] = datatypes.JSON(p.UserAnswer)
	}
	if p.IsCorrect != nil {
		fields["is_correct"] = *p.IsCorrect
	}
	if p.TimeSpent != nil {
		fields["time_spent"] = *p.TimeSpent
	}
	if p.IsChecked != nil {
		fields["is_checked"] = *p.IsChecked
	}
	return fields
}

// CreatePracticeSession records an answer within a progress row. A second call
// for the same question updates the existing session instead.
func (s *ProgressService) CreatePracticeSession(ctx context.Context, userID uint, progressID string, req SessionRequest) (*model.PracticeQuestionSession, error) {
	if req.QuestionID == "" {
		return nil, fmt.Errorf("%w: questionId is required", util.ErrInvalidArgument)
	}
	if err := nonNegative("timeSpent", req.TimeSpent); err != nil {
		return nil, err
	}
	patch := SessionPatch{
		UserAnswer: req.UserAnswer,
		IsCorrect:  req.IsCorrect,
		TimeSpent:  req.TimeSpent,
		IsChecked:  req.IsChecked,
	}

	var session *model.PracticeQuestionSession
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ProgressRepo.WithTx(tx)
		p, err := s.ownedProgress(ctx, repo, userID, progressID, true)
		if err != nil {
			return err
		}
		if _, err := s.QuestionRepo.WithTx(tx).FindByID(ctx, req.QuestionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		fresh := &model.PracticeQuestionSession{
			ProgressID: progressID,
			QuestionID: req.QuestionID,
		}
		if len(req.UserAnswer) > 0 {
			fresh.UserAnswer = datatypes.JSON(req.UserAnswer)
		}
		if req.IsCorrect != nil {
			fresh.IsCorrect = *req.IsCorrect
		}
		if req.TimeSpent != nil {
			fresh.TimeSpent = *req.TimeSpent
		}
		if req.IsChecked != nil {
			fresh.IsChecked = *req.IsChecked
		}
		created, err := repo.CreateSessionIfAbsent(ctx, fresh)
		if err != nil {
			return err
		}

		existing, err := repo.FindSession(ctx, progressID, req.QuestionID)
		if err != nil {
			return err
		}
		if !created {
			if fields := patch.fields(); len(fields) > 0 {
				if err := repo.UpdateSession(ctx, existing.ID, fields); err != nil {
					return err
				}
				if existing, err = repo.FindSessionByID(ctx, existing.ID); err != nil {
					return err
				}
			}
		}
		session = existing

		progressFields := map[string]interface{}{"last_accessed_at": s.now()}
		if !p.HasVisited(req.QuestionID) {
			visited := append(datatypes.JSONSlice[string]{}, p.VisitedQuestions...)
			progressFields["visited_questions"] = append(visited, req.QuestionID)
		}
		return repo.Updates(ctx, progressID, progressFields)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ProgressService) UpdatePracticeSession(ctx context.Context, userID uint, sessionID string, patch SessionPatch) (*model.PracticeQuestionSession, error) {
	if err := nonNegative("timeSpent", patch.TimeSpent); err != nil {
		return nil, err
	}

	var session *model.PracticeQuestionSession
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ProgressRepo.WithTx(tx)
		existing, err := repo.FindSessionByID(ctx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if _, err := s.ownedProgress(ctx, repo, userID, existing.ProgressID, false); err != nil {
			return err
		}

		if fields := patch.fields(); len(fields) > 0 {
			if err := repo.UpdateSession(ctx, sessionID, fields); err != nil {
				return err
			}
		}
		if err := repo.Touch(ctx, existing.ProgressID, s.now()); err != nil {
			return err
		}
		session, err = repo.FindSessionByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetContentStats 返回某内容节点的练习统计；没有进度时返回全零
func (s *ProgressService) GetContentStats(ctx context.Context, userID uint, contentType, contentID string) (*model.ContentStats, error) {
	ct, err := parseContentType(contentType)
	if err != nil {
		return nil, err
	}

	p, err := s.ProgressRepo.FindByKey(ctx, userID, ct, contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.ContentStats{}, nil
	}
	if err != nil {
		return nil, err
	}

	stats, err := s.ProgressRepo.SessionStats(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	st := stats[p.ID]
	last := p.LastAccessedAt
	return &model.ContentStats{
		TotalQuestions:     p.TotalQuestions,
		CompletedQuestions: p.CompletedQuestions,
		Accuracy:           util.Percent(st.Correct, st.Total),
		TimeSpent:          st.TimeSpent,
		LastAccessed:       &last,
	}, nil
}

// GetPracticeHistory lists the user's most recently used progress rows.
func (s *ProgressService) GetPracticeHistory(ctx context.Context, userID uint, limit int) ([]model.PracticeHistoryItem, error) {
	_, limit = util.NormalizePage(1, limit)
	rows, err := s.ProgressRepo.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	stats, err := s.ProgressRepo.SessionStats(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]model.PracticeHistoryItem, 0, len(rows))
	for _, r := range rows {
		st := stats[r.ID]
		items = append(items, model.PracticeHistoryItem{
			ProgressID:         r.ID,
			ContentType:        r.ContentType,
			ContentID:          r.ContentID,
			TotalQuestions:     r.TotalQuestions,
			CompletedQuestions: r.CompletedQuestions,
			IsCompleted:        r.IsCompleted,
			Accuracy:           util.Percent(st.Correct, st.Total),
			TimeSpent:          st.TimeSpent,
			LastAccessedAt:     r.LastAccessedAt,
		})
	}
	return items, nil
}
