package service

import (
	"context"
	"errors"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/tracing"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaperService struct {
	PaperRepo    *repository.ExamPaperRepository
	QuestionRepo *repository.QuestionRepository
	CatalogRepo  *repository.CatalogRepository
	Analytics    *AnalyticsService

	practice atomic.Pointer[config.PracticeConfig]
	sampler  *sampler
}

// NewPaperService builds the service; src seeds question sampling and may be nil.
func NewPaperService(
	paperRepo *repository.ExamPaperRepository,
	questionRepo *repository.QuestionRepository,
	catalogRepo *repository.CatalogRepository,
	analytics *AnalyticsService,
	practice config.PracticeConfig,
	src rand.Source,
) *PaperService {
	s := &PaperService{
		PaperRepo:    paperRepo,
		QuestionRepo: questionRepo,
		CatalogRepo:  catalogRepo,
		Analytics:    analytics,
		sampler:      newSampler(src),
	}
	if practice.Validate() != nil {
		practice = config.DefaultPracticeConfig()
	}
	s.practice.Store(&practice)
	return s
}

// SetPracticeConfig swaps the MIXED split at runtime (config hot reload).
func (s *PaperService) SetPracticeConfig(cfg config.PracticeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.practice.Store(&cfg)
	return nil
}

func (s *PaperService) PracticeConfig() config.PracticeConfig {
	return *s.practice.Load()
}

type CreatePaperRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	SubjectIDs   []string `json:"subjectIds"`
	TopicIDs     []string `json:"topicIds"`
	SubtopicIDs  []string `json:"subtopicIds"`
	QuestionIDs  []string `json:"questionIds"`
	TimeLimitMin int      `json:"timeLimitMin"`
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CreatePaper 创建试卷：显式题目列表原样使用，否则按筛选条件解析
func (s *PaperService) CreatePaper(ctx context.Context, userID uint, req CreatePaperRequest) (*model.ExamPaper, error) {
	ctx, span := tracing.StartSpan(ctx, "PaperService.CreatePaper")
	defer span.End()

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", util.ErrInvalidArgument)
	}
	if req.TimeLimitMin < 0 {
		return nil, fmt.Errorf("%w: timeLimitMin must not be negative", util.ErrInvalidArgument)
	}

	paper := &model.ExamPaper{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		SubjectIDs:   datatypes.JSONSlice[string](dedupe(req.SubjectIDs)),
		TopicIDs:     datatypes.JSONSlice[string](dedupe(req.TopicIDs)),
		SubtopicIDs:  datatypes.JSONSlice[string](dedupe(req.SubtopicIDs)),
		TimeLimitMin: req.TimeLimitMin,
		CreatedBy:    userID,
	}

	if len(req.QuestionIDs) > 0 {
		ids := dedupe(req.QuestionIDs)
		found, err := s.QuestionRepo.ExistingIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			known := make(map[string]bool, len(found))
			for _, id := range found {
				known[id] = true
			}
			var missing []string
			for _, id := range ids {
				if !known[id] {
					missing = append(missing, id)
				}
			}
			return nil, fmt.Errorf("%w: %s", util.ErrQuestionNotFound, strings.Join(missing, ", "))
		}
		paper.QuestionIDs = ids
		paper.Source = model.PaperSourceManual
	} else {
		if len(paper.SubjectIDs)+len(paper.TopicIDs)+len(paper.SubtopicIDs) == 0 {
			return nil, fmt.Errorf("%w: questionIds or at least one filter is required", util.ErrInvalidArgument)
		}
		ids, err := s.QuestionRepo.ListIDs(ctx, repository.QuestionFilter{
			SubjectIDs:  paper.SubjectIDs,
			TopicIDs:    paper.TopicIDs,
			SubtopicIDs: paper.SubtopicIDs,
		})
		if err != nil {
			return nil, err
		}
		paper.QuestionIDs = ids
		paper.Source = model.PaperSourceFilter
	}
	if paper.QuestionIDs == nil {
		paper.QuestionIDs = datatypes.JSONSlice[string]{}
	}

	if err := s.PaperRepo.Create(ctx, paper); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("paper.questions", len(paper.QuestionIDs)))
	logger.Log.Info("exam paper created",
		zap.String("paper_id", paper.ID),
		zap.String("source", string(paper.Source)),
		zap.Int("questions", len(paper.QuestionIDs)))
	return paper, nil
}

func (s *PaperService) GetPaper(ctx context.Context, id string) (*model.ExamPaper, error) {
	paper, err := s.PaperRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPaperNotFound
	}
	return paper, err
}

type PracticeTestRequest struct {
	SubjectID     string `json:"subjectId" binding:"required"`
	TopicID       string `json:"topicId"`
	SubtopicID    string `json:"subtopicId"`
	QuestionCount int    `json:"questionCount"`
	Difficulty    string `json:"difficulty"`
	TimeLimitMin  int    `json:"timeLimitMin"`
	Title         string `json:"title"`
}

type AdaptivePracticeRequest struct {
	SubjectID     string `json:"subjectId" binding:"required"`
	TopicID       string `json:"topicId"`
	SubtopicID    string `json:"subtopicId"`
	QuestionCount int    `json:"questionCount"`
	TimeLimitMin  int    `json:"timeLimitMin"`
}

type BandResult struct {
	Difficulty model.Difficulty `json:"difficulty"`
	Requested  int              `json:"requested"`
	Returned   int              `json:"returned"`
}

// PracticeTestResult carries the saved paper and its questions. A pool smaller
// than the request is not an error: Shortfall and Missing report the gap.
type PracticeTestResult struct {
	Paper      *model.ExamPaper `json:"paper"`
	Questions  []model.Question `json:"questions"`
	Difficulty model.Difficulty `json:"difficulty"`
	Requested  int              `json:"requested"`
	Returned   int              `json:"returned"`
	Shortfall  bool             `json:"shortfall"`
	Missing    int              `json:"missing"`
	Bands      []BandResult     `json:"bands"`
}

func (s *PaperService) resolveCount(n int) (int, error) {
	if n == 0 {
		n = s.PracticeConfig().DefaultCount
		if n <= 0 {
			n = util.DefaultPracticeQuestionCount
		}
	}
	if n < 0 || n > util.MaxPracticeQuestionCount {
		return 0, fmt.Errorf("%w: got %d, max %d", util.ErrInvalidQuestionCount, n, util.MaxPracticeQuestionCount)
	}
	return n, nil
}

// GeneratePracticeTest samples a practice paper under the requested difficulty.
func (s *PaperService) GeneratePracticeTest(ctx context.Context, userID uint, req PracticeTestRequest) (*PracticeTestResult, error) {
	difficulty := model.DifficultyMixed
	if req.Difficulty != "" {
		d, ok := model.ParseDifficulty(req.Difficulty)
		if !ok {
			return nil, fmt.Errorf("%w: %q", util.ErrInvalidDifficulty, req.Difficulty)
		}
		difficulty = d
	}
	return s.generate(ctx, userID, req, difficulty, model.PaperSourcePractice)
}

// GenerateAdaptivePracticeTest picks the difficulty from the user's accuracy in
// the subject: no history or under 50% gives EASY, under 80% MIXED, else HARD.
func (s *PaperService) GenerateAdaptivePracticeTest(ctx context.Context, userID uint, req AdaptivePracticeRequest) (*PracticeTestResult, error) {
	difficulty := model.DifficultyEasy
	if s.Analytics != nil {
		acc, err := s.Analytics.SubjectAccuracy(ctx, userID, req.SubjectID)
		if err != nil {
			return nil, err
		}
		difficulty = AdaptiveDifficulty(acc)
	}

	return s.generate(ctx, userID, PracticeTestRequest{
		SubjectID:     req.SubjectID,
		TopicID:       req.TopicID,
		SubtopicID:    req.SubtopicID,
		QuestionCount: req.QuestionCount,
		TimeLimitMin:  req.TimeLimitMin,
	}, difficulty, model.PaperSourceAdaptive)
}

func AdaptiveDifficulty(acc *model.GroupAccuracy) model.Difficulty {
	switch {
	case acc == nil || acc.Attempted == 0 || acc.Accuracy < 50:
		return model.DifficultyEasy
	case acc.Accuracy < 80:
		return model.DifficultyMixed
	default:
		return model.DifficultyHard
	}
}

func (s *PaperService) generate(ctx context.Context, userID uint, req PracticeTestRequest, difficulty model.Difficulty, source model.PaperSource) (*PracticeTestResult, error) {
	ctx, span := tracing.StartSpan(ctx, "PaperService.GeneratePracticeTest")
	defer span.End()

	count, err := s.resolveCount(req.QuestionCount)
	if err != nil {
		return nil, err
	}
	if req.TimeLimitMin < 0 {
		return nil, fmt.Errorf("%w: timeLimitMin must not be negative", util.ErrInvalidArgument)
	}

	subject, err := s.CatalogRepo.FindSubject(ctx, req.SubjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}

	base := repository.QuestionFilter{SubjectIDs: []string{subject.ID}}
	if req.TopicID != "" {
		base.TopicIDs = []string{req.TopicID}
	}
	if req.SubtopicID != "" {
		base.SubtopicIDs = []string{req.SubtopicID}
	}

	result := &PracticeTestResult{Difficulty: difficulty, Requested: count}
	var picked []string

	if difficulty == model.DifficultyMixed {
		candidates := make(map[model.Difficulty][]string, len(model.Bands))
		for _, band := range model.Bands {
			f := base
			f.Difficulty = band
			ids, err := s.QuestionRepo.ListIDs(ctx, f)
			if err != nil {
				return nil, err
			}
			candidates[band] = ids
		}
		quotas := bandQuotas(count, s.PracticeConfig())
		picks := s.sampler.pickMixed(candidates, quotas)
		for _, band := range model.Bands {
			p := picks[band]
			picked = append(picked, p.picked...)
			result.Bands = append(result.Bands, BandResult{Difficulty: band, Requested: p.quota, Returned: len(p.picked)})
		}
	} else {
		f := base
		f.Difficulty = difficulty
		ids, err := s.QuestionRepo.ListIDs(ctx, f)
		if err != nil {
			return nil, err
		}
		picked = s.sampler.pick(ids, count)
		result.Bands = []BandResult{{Difficulty: difficulty, Requested: count, Returned: len(picked)}}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s practice test", subject.Name)
	}
	paper := &model.ExamPaper{
		Title:        title,
		SubjectIDs:   datatypes.JSONSlice[string]{subject.ID},
		TopicIDs:     datatypes.JSONSlice[string]{},
		SubtopicIDs:  datatypes.JSONSlice[string]{},
		QuestionIDs:  datatypes.JSONSlice[string](picked),
		TimeLimitMin: req.TimeLimitMin,
		Source:       source,
		CreatedBy:    userID,
	}
	if req.TopicID != "" {
		paper.TopicIDs = append(paper.TopicIDs, req.TopicID)
	}
	if req.SubtopicID != "" {
		paper.SubtopicIDs = append(paper.SubtopicIDs, req.SubtopicID)
	}
	if paper.QuestionIDs == nil {
		paper.QuestionIDs = datatypes.JSONSlice[string]{}
	}
	if err := s.PaperRepo.Create(ctx, paper); err != nil {
		return nil, err
	}

	questions, err := s.QuestionRepo.FindByIDs(ctx, picked, false)
	if err != nil {
		return nil, err
	}

	result.Paper = paper
	result.Questions = questions
	result.Returned = len(picked)
	result.Missing = count - len(picked)
	result.Shortfall = result.Missing > 0

	monitoring.PracticeTestsGenerated.WithLabelValues(string(difficulty)).Inc()
	if result.Shortfall {
		monitoring.PracticeTestShortfall.Inc()
	}
	span.SetAttributes(
		attribute.String("practice.difficulty", string(difficulty)),
		attribute.Int("practice.requested", count),
		attribute.Int("practice.returned", result.Returned),
	)
	logger.Log.Info("practice test generated",
		zap.Uint("user_id", userID),
		zap.String("paper_id", paper.ID),
		zap.String("difficulty", string(difficulty)),
		zap.Int("requested", count),
		zap.Int("returned", result.Returned),
		zap.Bool("shortfall", result.Shortfall))
	return result, nil
}
