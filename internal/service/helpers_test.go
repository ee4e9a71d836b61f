package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/pkg/database"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db          *gorm.DB
	questions   *repository.QuestionRepository
	catalog     *repository.CatalogRepository
	papers      *repository.ExamPaperRepository
	submissions *repository.SubmissionRepository
	analytics   *AnalyticsService
	paperSvc    *PaperService
	subSvc      *SubmissionService
	progressSvc *ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:          db,
		questions:   repository.NewQuestionRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		papers:      repository.NewExamPaperRepository(db),
		submissions: repository.NewSubmissionRepository(db),
	}
	env.analytics = NewAnalyticsService(repository.NewAnalyticsRepository(db), env.questions, nil, 0)
	env.paperSvc = NewPaperService(env.papers, env.questions, env.catalog, env.analytics, config.DefaultPracticeConfig(), rand.NewPCG(1, 2))
	env.subSvc = NewSubmissionService(db, env.submissions, env.papers, env.questions, nil)
	env.progressSvc = NewProgressService(db, repository.NewProgressRepository(db), env.questions, env.catalog, nil, 0)
	return env
}

func (e *testEnv) subject(t *testing.T, streamID, name string) *model.Subject {
	t.Helper()
	s := &model.Subject{StreamID: streamID, Name: name}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

type questionSpec struct {
	subjectID  string
	lessonID   string
	topicID    string
	subtopicID string
	difficulty model.Difficulty
	pyqYear    int
}

// question stores a four-option question whose first option is correct.
func (e *testEnv) question(t *testing.T, spec questionSpec) *model.Question {
	t.Helper()
	if spec.difficulty == "" {
		spec.difficulty = model.DifficultyMedium
	}
	q := &model.Question{
		Text:        fmt.Sprintf("question %s", model.GenerateUUID()[:8]),
		Difficulty:  spec.difficulty,
		Explanation: "because",
	}
	ref := func(id string) *string {
		if id == "" {
			return nil
		}
		return &id
	}
	q.SubjectID = ref(spec.subjectID)
	q.LessonID = ref(spec.lessonID)
	q.TopicID = ref(spec.topicID)
	q.SubtopicID = ref(spec.subtopicID)
	if spec.pyqYear > 0 {
		year := spec.pyqYear
		q.IsPreviousYear = true
		q.YearAppeared = &year
	}
	for i := 0; i < 4; i++ {
		q.Options = append(q.Options, model.QuestionOption{
			Text:      fmt.Sprintf("option %d", i+1),
			IsCorrect: i == 0,
			Order:     i,
		})
	}
	require.NoError(t, e.db.Create(q).Error)
	return q
}

func (e *testEnv) questionsFor(t *testing.T, subjectID string, d model.Difficulty, n int) []*model.Question {
	t.Helper()
	out := make([]*model.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, e.question(t, questionSpec{subjectID: subjectID, difficulty: d}))
	}
	return out
}

func correctOption(q *model.Question) *string {
	id := q.CorrectOptionID()
	return &id
}

func wrongOption(q *model.Question) *string {
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func questionIDs(qs []*model.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}
