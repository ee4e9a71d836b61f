package service

import (
	"context"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
)

type AnalyticsService struct {
	Repo         *repository.AnalyticsRepository
	QuestionRepo *repository.QuestionRepository
	Redis        *redis.Client
	PYQStatsTTL  time.Duration
}

func NewAnalyticsService(repo *repository.AnalyticsRepository, questionRepo *repository.QuestionRepository, rdb *redis.Client, pyqStatsTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{
		Repo:         repo,
		QuestionRepo: questionRepo,
		Redis:        rdb,
		PYQStatsTTL:  pyqStatsTTL,
	}
}

func (s *AnalyticsService) byGroup(ctx context.Context, userID uint, level repository.GroupLevel) ([]model.GroupAccuracy, error) {
	counts, err := s.Repo.AnswerCountsByGroup(ctx, userID, level)
	if err != nil {
		return nil, err
	}
	out := make([]model.GroupAccuracy, 0, len(counts))
	for _, c := range counts {
		out = append(out, model.GroupAccuracy{
			ID:        c.ID,
			Name:      c.Name,
			Attempted: c.Attempted,
			Correct:   c.Correct,
			Accuracy:  util.Percent(c.Correct, c.Attempted),
		})
	}
	return out, nil
}

func (s *AnalyticsService) BySubject(ctx context.Context, userID uint) ([]model.GroupAccuracy, error) {
	return s.byGroup(ctx, userID, repository.GroupBySubject)
}

func (s *AnalyticsService) ByTopic(ctx context.Context, userID uint) ([]model.GroupAccuracy, error) {
	return s.byGroup(ctx, userID, repository.GroupByTopic)
}

func (s *AnalyticsService) BySubtopic(ctx context.Context, userID uint) ([]model.GroupAccuracy, error) {
	return s.byGroup(ctx, userID, repository.GroupBySubtopic)
}

// SubjectAccuracy returns the user's rollup for one subject, or nil without history.
func (s *AnalyticsService) SubjectAccuracy(ctx context.Context, userID uint, subjectID string) (*model.GroupAccuracy, error) {
	groups, err := s.BySubject(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == subjectID {
			return &groups[i], nil
		}
	}
	return nil, nil
}

// PYQStats 站点级往年真题统计，优先读缓存
func (s *AnalyticsService) PYQStats(ctx context.Context) (*model.PYQStats, error) {
	var cached model.PYQStats
	if cacheGet(ctx, s.Redis, cacheKeyPYQStats, &cached) {
		return &cached, nil
	}

	total, err := s.Repo.PYQTotal(ctx)
	if err != nil {
		return nil, err
	}
	byYear, err := s.Repo.PYQByYear(ctx)
	if err != nil {
		return nil, err
	}
	bySubject, err := s.Repo.PYQBySubject(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.PYQStats{
		Total:     total,
		ByYear:    byYear,
		BySubject: bySubject,
	}
	if stats.ByYear == nil {
		stats.ByYear = []model.YearCount{}
	}
	if stats.BySubject == nil {
		stats.BySubject = []model.SubjectCount{}
	}

	cacheSet(ctx, s.Redis, cacheKeyPYQStats, stats, s.PYQStatsTTL)
	return stats, nil
}

type PYQQuery struct {
	SubjectID  string `form:"subjectId"`
	TopicID    string `form:"topicId"`
	Year       *int   `form:"year"`
	Difficulty string `form:"difficulty"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// ListPYQQuestions pages through previous-year questions.
func (s *AnalyticsService) ListPYQQuestions(ctx context.Context, q PYQQuery) (*util.PageResponse, error) {
	pyq := true
	f := repository.QuestionFilter{
		IsPreviousYear: &pyq,
		Year:           q.Year,
		Search:         q.Search,
	}
	if q.SubjectID != "" {
		f.SubjectIDs = []string{q.SubjectID}
	}
	if q.TopicID != "" {
		f.TopicIDs = []string{q.TopicID}
	}
	if q.Difficulty != "" {
		d, ok := model.ParseDifficulty(q.Difficulty)
		if !ok || d == model.DifficultyMixed {
			return nil, util.ErrInvalidDifficulty
		}
		f.Difficulty = d
	}

	page, limit := util.NormalizePage(q.Page, q.Limit)
	questions, total, err := s.QuestionRepo.Page(ctx, f, page, limit)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{
		List:  questions,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
