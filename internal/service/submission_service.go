package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/storage"
	"exam_prep_backend/pkg/tracing"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmissionService struct {
	DB             *gorm.DB
	SubmissionRepo *repository.SubmissionRepository
	PaperRepo      *repository.ExamPaperRepository
	QuestionRepo   *repository.QuestionRepository
	Storage        storage.Provider

	now func() time.Time
}

func NewSubmissionService(
	db *gorm.DB,
	submissionRepo *repository.SubmissionRepository,
	paperRepo *repository.ExamPaperRepository,
	questionRepo *repository.QuestionRepository,
	store storage.Provider,
) *SubmissionService {
	return &SubmissionService{
		DB:             db,
		SubmissionRepo: submissionRepo,
		PaperRepo:      paperRepo,
		QuestionRepo:   questionRepo,
		Storage:        store,
		now:            time.Now,
	}
}

type StartResult struct {
	SubmissionID   string   `json:"submissionId"`
	QuestionIDs    []string `json:"questionIds"`
	TotalQuestions int      `json:"totalQuestions"`
	TimeLimitMin   int      `json:"timeLimitMin"`
}

// Start opens a new attempt; every call creates a separate submission.
func (s *SubmissionService) Start(ctx context.Context, userID uint, paperID string) (*StartResult, error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.Start")
	defer span.End()

	paper, err := s.PaperRepo.FindByID(ctx, paperID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPaperNotFound
	}
	if err != nil {
		return nil, err
	}

	sub := &model.ExamSubmission{
		UserID:         userID,
		ExamPaperID:    paper.ID,
		Status:         model.SubmissionCreated,
		StartedAt:      s.now(),
		TotalQuestions: len(paper.QuestionIDs),
	}
	if err := s.SubmissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	monitoring.SubmissionsStarted.Inc()
	span.SetAttributes(attribute.String("submission.id", sub.ID))
	logger.Log.Info("submission started",
		zap.Uint("user_id", userID),
		zap.String("paper_id", paper.ID),
		zap.String("submission_id", sub.ID),
		zap.Int("total_questions", sub.TotalQuestions))

	ids := append([]string{}, paper.QuestionIDs...)
	return &StartResult{
		SubmissionID:   sub.ID,
		QuestionIDs:    ids,
		TotalQuestions: sub.TotalQuestions,
		TimeLimitMin:   paper.TimeLimitMin,
	}, nil
}

func ownedSubmission(sub *model.ExamSubmission, err error, userID uint) (*model.ExamSubmission, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, util.ErrForbidden
	}
	return sub, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, userID uint, submissionID string) (*model.ExamSubmission, error) {
	sub, err := s.SubmissionRepo.FindByID(ctx, submissionID)
	return ownedSubmission(sub, err, userID)
}

func (s *SubmissionService) ListSubmissions(ctx context.Context, userID uint, page, limit int) (*util.PageResponse, error) {
	page, limit = util.NormalizePage(page, limit)
	rows, total, err := s.SubmissionRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: rows, Total: total, Page: page, Limit: limit}, nil
}

// SubmitAnswer records the selection for one question, replacing any earlier one.
// A nil or empty selection stores a skipped answer.
func (s *SubmissionService) SubmitAnswer(ctx context.Context, userID uint, submissionID, questionID string, selectedOptionID *string) (*model.ExamAnswer, error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.SubmitAnswer")
	defer span.End()

	if selectedOptionID != nil && *selectedOptionID == "" {
		selectedOptionID = nil
	}

	var stored *model.ExamAnswer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.SubmissionRepo.WithTx(tx)
		sub, err := subs.FindByIDForUpdate(ctx, submissionID)
		sub, err = ownedSubmission(sub, err, userID)
		if err != nil {
			return err
		}
		if sub.IsFinalized() {
			return util.ErrSubmissionFinalized
		}

		paper, err := s.PaperRepo.WithTx(tx).FindByID(ctx, sub.ExamPaperID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrPaperNotFound
		}
		if err != nil {
			return err
		}
		if !paper.Contains(questionID) {
			return util.ErrQuestionNotInPaper
		}

		question, err := s.QuestionRepo.WithTx(tx).FindByID(ctx, questionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		if err != nil {
			return err
		}
		if selectedOptionID != nil && !question.HasOption(*selectedOptionID) {
			return util.ErrOptionNotInQuestion
		}

		isCorrect := selectedOptionID != nil && *selectedOptionID == question.CorrectOptionID()
		stored, err = subs.UpsertAnswer(ctx, &model.ExamAnswer{
			SubmissionID:     submissionID,
			QuestionID:       questionID,
			SelectedOptionID: selectedOptionID,
			IsCorrect:        isCorrect,
		})
		if err != nil {
			return err
		}
		return subs.MarkInProgress(ctx, submissionID)
	})
	if err != nil {
		return nil, err
	}

	monitoring.AnswersRecorded.Inc()
	return stored, nil
}

// Finalize scores the submission once. Later calls, concurrent ones included,
// return the stored result unchanged.
func (s *SubmissionService) Finalize(ctx context.Context, userID uint, submissionID string) (*model.ExamSubmission, error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.Finalize")
	defer span.End()

	var (
		result    *model.ExamSubmission
		finalized bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.SubmissionRepo.WithTx(tx)
		sub, err := subs.FindByIDForUpdate(ctx, submissionID)
		sub, err = ownedSubmission(sub, err, userID)
		if err != nil {
			return err
		}
		if sub.IsFinalized() {
			result = sub
			return nil
		}

		correct, err := subs.CountCorrect(ctx, submissionID)
		if err != nil {
			return err
		}
		count, pct := Score(int(correct), sub.TotalQuestions)
		finalized, err = subs.Finalize(ctx, submissionID, count, pct, s.now())
		if err != nil {
			return err
		}
		result, err = subs.FindByID(ctx, submissionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if finalized {
		monitoring.SubmissionsFinalized.Inc()
		if result.ScorePercent != nil {
			monitoring.ScorePercent.Observe(*result.ScorePercent)
		}
		logger.Log.Info("submission finalized",
			zap.Uint("user_id", userID),
			zap.String("submission_id", submissionID),
			zap.Int("correct", result.CorrectCount),
			zap.Int("total", result.TotalQuestions))
	}
	return result, nil
}

type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Order     int    `json:"order"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type AnswerView struct {
	SelectedOptionID *string `json:"selectedOptionId"`
	IsCorrect        *bool   `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID              string                      `json:"id"`
	Text            string                      `json:"text"`
	Difficulty      model.Difficulty            `json:"difficulty"`
	SubjectID       *string                     `json:"subjectId"`
	TopicID         *string                     `json:"topicId"`
	SubtopicID      *string                     `json:"subtopicId"`
	Options         []OptionView                `json:"options"`
	Answer          *AnswerView                 `json:"answer"`
	CorrectOptionID string                      `json:"correctOptionId,omitempty"`
	Explanation     string                      `json:"explanation,omitempty"`
	Explanations    []model.QuestionExplanation `json:"explanations,omitempty"`
}

type SubmissionQuestions struct {
	Submission *model.ExamSubmission `json:"submission"`
	Questions  []QuestionView        `json:"questions"`
}

type ExamResult struct {
	Submission *model.ExamSubmission `json:"submission"`
	Answered   int                   `json:"answered"`
	Questions  []QuestionView        `json:"questions"`
}

// buildViews joins answers onto the paper's questions in snapshot order. Correct
// options are revealed only when reveal is set.
func buildViews(questions []model.Question, answers []model.ExamAnswer, reveal bool) []QuestionView {
	byQuestion := make(map[string]model.ExamAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		v := QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Difficulty: q.Difficulty,
			SubjectID:  q.SubjectID,
			TopicID:    q.TopicID,
			SubtopicID: q.SubtopicID,
			Options:    make([]OptionView, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			ov := OptionView{ID: o.ID, Text: o.Text, Order: o.Order}
			if reveal {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			v.Options = append(v.Options, ov)
		}
		if a, ok := byQuestion[q.ID]; ok {
			v.Answer = &AnswerView{SelectedOptionID: a.SelectedOptionID}
			if reveal {
				correct := a.IsCorrect
				v.Answer.IsCorrect = &correct
			}
		}
		if reveal {
			v.CorrectOptionID = q.CorrectOptionID()
			v.Explanation = q.Explanation
			v.Explanations = q.Explanations
		}
		views = append(views, v)
	}
	return views
}

func (s *SubmissionService) loadPaperQuestions(ctx context.Context, sub *model.ExamSubmission, withExplanations bool) ([]model.Question, []model.ExamAnswer, error) {
	paper, err := s.PaperRepo.FindByID(ctx, sub.ExamPaperID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrPaperNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.QuestionRepo.FindByIDs(ctx, paper.QuestionIDs, withExplanations)
	if err != nil {
		return nil, nil, err
	}
	answers, err := s.SubmissionRepo.FindAnswers(ctx, sub.ID)
	if err != nil {
		return nil, nil, err
	}
	return questions, answers, nil
}

// GetSubmissionQuestions returns the paper's questions with the caller's current
// selections. Correctness stays hidden until the submission is finalized.
func (s *SubmissionService) GetSubmissionQuestions(ctx context.Context, userID uint, submissionID string) (*SubmissionQuestions, error) {
	sub, err := s.GetSubmission(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	questions, answers, err := s.loadPaperQuestions(ctx, sub, false)
	if err != nil {
		return nil, err
	}
	return &SubmissionQuestions{
		Submission: sub,
		Questions:  buildViews(questions, answers, sub.IsFinalized()),
	}, nil
}

// GetExamResults 成绩详情，仅在交卷后可查看
func (s *SubmissionService) GetExamResults(ctx context.Context, userID uint, submissionID string) (*ExamResult, error) {
	sub, err := s.GetSubmission(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsFinalized() {
		return nil, util.ErrResultsNotYetAvailable
	}
	questions, answers, err := s.loadPaperQuestions(ctx, sub, true)
	if err != nil {
		return nil, err
	}

	answered := 0
	for _, a := range answers {
		if a.SelectedOptionID != nil {
			answered++
		}
	}
	return &ExamResult{
		Submission: sub,
		Answered:   answered,
		Questions:  buildViews(questions, answers, true),
	}, nil
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportResults writes the result sheet of a finalized submission to object storage.
func (s *SubmissionService) ExportResults(ctx context.Context, userID uint, submissionID string) (*ExportResult, error) {
	if s.Storage == nil {
		return nil, util.ErrStorageNotConfigured
	}
	result, err := s.GetExamResults(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("results/%d/%s.json", userID, submissionID)
	url, err := storage.PutBytes(ctx, s.Storage, key, data, "application/json")
	if err != nil {
		return nil, fmt.Errorf("export result sheet: %w", err)
	}

	logger.Log.Info("result sheet exported",
		zap.Uint("user_id", userID),
		zap.String("submission_id", submissionID),
		zap.String("key", key))
	return &ExportResult{Key: key, URL: url}, nil
}
