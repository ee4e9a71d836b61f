package service

import (
	"context"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCreatePaperExplicitQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subj := env.subject(t, "stream-1", "Physics")
	qs := env.questionsFor(t, subj.ID, model.DifficultyMedium, 3)

	paper, err := env.paperSvc.CreatePaper(ctx, 1, CreatePaperRequest{
		Title:       "  Mock 1 ",
		QuestionIDs: []string{qs[2].ID, qs[0].ID, qs[2].ID, qs[1].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock 1", paper.Title)
	assert.Equal(t, model.PaperSourceManual, paper.Source)
	assert.Equal(t, []string{qs[2].ID, qs[0].ID, qs[1].ID}, []string(paper.QuestionIDs))

	stored, err := env.paperSvc.GetPaper(ctx, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, paper.QuestionIDs, stored.QuestionIDs)
	assert.Equal(t, uint(1), stored.CreatedBy)
}

func TestCreatePaperUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Physics")
	q := env.question(t, questionSpec{subjectID: subj.ID})

	_, err := env.paperSvc.CreatePaper(context.Background(), 1, CreatePaperRequest{
		Title:       "Mock",
		QuestionIDs: []string{q.ID, "missing-id"},
	})
	require.ErrorIs(t, err, util.ErrQuestionNotFound)
	assert.Contains(t, err.Error(), "missing-id")
}

func TestCreatePaperFromFilters(t *testing.T) {
	env := newTestEnv(t)
	physics := env.subject(t, "stream-1", "Physics")
	chem := env.subject(t, "stream-1", "Chemistry")
	inPhysics := env.questionsFor(t, physics.ID, model.DifficultyEasy, 2)
	env.questionsFor(t, chem.ID, model.DifficultyEasy, 3)

	paper, err := env.paperSvc.CreatePaper(context.Background(), 1, CreatePaperRequest{
		Title:      "Physics set",
		SubjectIDs: []string{physics.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaperSourceFilter, paper.Source)
	assert.ElementsMatch(t, questionIDs(inPhysics), []string(paper.QuestionIDs))
}

func TestCreatePaperEmptyFilterMatch(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Empty")

	paper, err := env.paperSvc.CreatePaper(context.Background(), 1, CreatePaperRequest{
		Title:      "Nothing here",
		SubjectIDs: []string{subj.ID},
	})
	require.NoError(t, err)
	assert.NotNil(t, paper.QuestionIDs)
	assert.Empty(t, paper.QuestionIDs)
}

func TestCreatePaperValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.paperSvc.CreatePaper(ctx, 1, CreatePaperRequest{Title: "No source"})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	_, err = env.paperSvc.CreatePaper(ctx, 1, CreatePaperRequest{Title: " ", SubjectIDs: []string{"x"}})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	_, err = env.paperSvc.CreatePaper(ctx, 1, CreatePaperRequest{Title: "t", SubjectIDs: []string{"x"}, TimeLimitMin: -5})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	_, err = env.paperSvc.GetPaper(ctx, "nope")
	assert.ErrorIs(t, err, util.ErrPaperNotFound)
}

func TestPaperSnapshotIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Physics")
	qs := env.questionsFor(t, subj.ID, model.DifficultyEasy, 2)

	paper, err := env.paperSvc.CreatePaper(context.Background(), 1, CreatePaperRequest{
		Title:       "Frozen",
		QuestionIDs: questionIDs(qs),
	})
	require.NoError(t, err)

	err = env.db.Model(paper).Update("question_ids", datatypes.JSONSlice[string]{qs[0].ID}).Error
	assert.ErrorIs(t, err, model.ErrSnapshotImmutable)

	// other columns stay editable
	require.NoError(t, env.db.Model(paper).Update("title", "Renamed").Error)
	stored, err := env.paperSvc.GetPaper(context.Background(), paper.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, questionIDs(qs), []string(stored.QuestionIDs))
}

func TestGeneratePracticeTestMixedBackfill(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Maths")
	env.questionsFor(t, subj.ID, model.DifficultyEasy, 4)
	env.questionsFor(t, subj.ID, model.DifficultyMedium, 4)
	env.questionsFor(t, subj.ID, model.DifficultyHard, 2)

	res, err := env.paperSvc.GeneratePracticeTest(context.Background(), 9, PracticeTestRequest{
		SubjectID:     subj.ID,
		QuestionCount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyMixed, res.Difficulty)
	assert.Equal(t, 10, res.Requested)
	assert.Equal(t, 10, res.Returned)
	assert.False(t, res.Shortfall)
	assert.Zero(t, res.Missing)
	require.Len(t, res.Questions, 10)
	assert.Len(t, res.Paper.QuestionIDs, 10)
	assert.Equal(t, model.PaperSourcePractice, res.Paper.Source)
	assert.Equal(t, "Maths practice test", res.Paper.Title)

	require.Len(t, res.Bands, 3)
	assert.Equal(t, BandResult{Difficulty: model.DifficultyEasy, Requested: 3, Returned: 4}, res.Bands[0])
	assert.Equal(t, BandResult{Difficulty: model.DifficultyMedium, Requested: 4, Returned: 4}, res.Bands[1])
	assert.Equal(t, BandResult{Difficulty: model.DifficultyHard, Requested: 3, Returned: 2}, res.Bands[2])

	// questions come back grouped EASY, MEDIUM, HARD in snapshot order
	seen := map[string]bool{}
	for i, q := range res.Questions {
		assert.Equal(t, res.Paper.QuestionIDs[i], q.ID)
		assert.False(t, seen[q.ID])
		seen[q.ID] = true
		switch {
		case i < 4:
			assert.Equal(t, model.DifficultyEasy, q.Difficulty)
		case i < 8:
			assert.Equal(t, model.DifficultyMedium, q.Difficulty)
		default:
			assert.Equal(t, model.DifficultyHard, q.Difficulty)
		}
	}
}

func TestGeneratePracticeTestShortfall(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Biology")
	env.questionsFor(t, subj.ID, model.DifficultyHard, 3)
	env.questionsFor(t, subj.ID, model.DifficultyEasy, 5)

	res, err := env.paperSvc.GeneratePracticeTest(context.Background(), 9, PracticeTestRequest{
		SubjectID:     subj.ID,
		Difficulty:    "hard",
		QuestionCount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyHard, res.Difficulty)
	assert.Equal(t, 3, res.Returned)
	assert.True(t, res.Shortfall)
	assert.Equal(t, 2, res.Missing)
	for _, q := range res.Questions {
		assert.Equal(t, model.DifficultyHard, q.Difficulty)
	}
}

func TestGeneratePracticeTestScopesToTopic(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Chemistry")
	for i := 0; i < 3; i++ {
		env.question(t, questionSpec{subjectID: subj.ID, topicID: "topic-a", difficulty: model.DifficultyEasy})
		env.question(t, questionSpec{subjectID: subj.ID, topicID: "topic-b", difficulty: model.DifficultyEasy})
	}

	res, err := env.paperSvc.GeneratePracticeTest(context.Background(), 9, PracticeTestRequest{
		SubjectID:     subj.ID,
		TopicID:       "topic-a",
		Difficulty:    "EASY",
		QuestionCount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Returned)
	assert.Equal(t, []string{"topic-a"}, []string(res.Paper.TopicIDs))
	for _, q := range res.Questions {
		require.NotNil(t, q.TopicID)
		assert.Equal(t, "topic-a", *q.TopicID)
	}
}

func TestGeneratePracticeTestErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subj := env.subject(t, "stream-1", "Maths")

	_, err := env.paperSvc.GeneratePracticeTest(ctx, 1, PracticeTestRequest{SubjectID: "unknown"})
	assert.ErrorIs(t, err, util.ErrSubjectNotFound)

	_, err = env.paperSvc.GeneratePracticeTest(ctx, 1, PracticeTestRequest{SubjectID: subj.ID, Difficulty: "brutal"})
	assert.ErrorIs(t, err, util.ErrInvalidDifficulty)

	_, err = env.paperSvc.GeneratePracticeTest(ctx, 1, PracticeTestRequest{SubjectID: subj.ID, QuestionCount: -1})
	assert.ErrorIs(t, err, util.ErrInvalidQuestionCount)

	_, err = env.paperSvc.GeneratePracticeTest(ctx, 1, PracticeTestRequest{SubjectID: subj.ID, QuestionCount: util.MaxPracticeQuestionCount + 1})
	assert.ErrorIs(t, err, util.ErrInvalidQuestionCount)
}

func TestGeneratePracticeTestDefaultCount(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Maths")
	env.questionsFor(t, subj.ID, model.DifficultyMedium, 15)

	res, err := env.paperSvc.GeneratePracticeTest(context.Background(), 1, PracticeTestRequest{
		SubjectID:  subj.ID,
		Difficulty: "MEDIUM",
	})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPracticeConfig().DefaultCount, res.Requested)
	assert.Equal(t, res.Requested, res.Returned)
}

func TestSetPracticeConfig(t *testing.T) {
	env := newTestEnv(t)
	subj := env.subject(t, "stream-1", "Maths")
	for _, d := range model.Bands {
		env.questionsFor(t, subj.ID, d, 10)
	}

	err := env.paperSvc.SetPracticeConfig(config.PracticeConfig{EasyPercent: 60, MediumPercent: 60, HardPercent: 0})
	assert.Error(t, err)
	assert.Equal(t, config.DefaultPracticeConfig(), env.paperSvc.PracticeConfig())

	require.NoError(t, env.paperSvc.SetPracticeConfig(config.PracticeConfig{EasyPercent: 50, MediumPercent: 50, HardPercent: 0, DefaultCount: 10}))
	res, err := env.paperSvc.GeneratePracticeTest(context.Background(), 1, PracticeTestRequest{SubjectID: subj.ID, QuestionCount: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Bands[0].Returned)
	assert.Equal(t, 5, res.Bands[1].Returned)
	assert.Equal(t, 0, res.Bands[2].Returned)
}

func TestAdaptiveDifficulty(t *testing.T) {
	tests := []struct {
		name string
		acc  *model.GroupAccuracy
		want model.Difficulty
	}{
		{"no history", nil, model.DifficultyEasy},
		{"nothing attempted", &model.GroupAccuracy{}, model.DifficultyEasy},
		{"struggling", &model.GroupAccuracy{Attempted: 10, Correct: 4, Accuracy: 40}, model.DifficultyEasy},
		{"at fifty", &model.GroupAccuracy{Attempted: 10, Correct: 5, Accuracy: 50}, model.DifficultyMixed},
		{"just under eighty", &model.GroupAccuracy{Attempted: 100, Correct: 79, Accuracy: 79.99}, model.DifficultyMixed},
		{"at eighty", &model.GroupAccuracy{Attempted: 10, Correct: 8, Accuracy: 80}, model.DifficultyHard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdaptiveDifficulty(tt.acc))
		})
	}
}

func TestGenerateAdaptivePracticeTest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subj := env.subject(t, "stream-1", "Maths")
	for _, d := range model.Bands {
		env.questionsFor(t, subj.ID, d, 5)
	}

	res, err := env.paperSvc.GenerateAdaptivePracticeTest(ctx, 3, AdaptivePracticeRequest{SubjectID: subj.ID, QuestionCount: 4})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyEasy, res.Difficulty, "no history starts easy")
	assert.Equal(t, model.PaperSourceAdaptive, res.Paper.Source)

	// answer everything right on a finalized attempt
	start, err := env.subSvc.Start(ctx, 3, res.Paper.ID)
	require.NoError(t, err)
	for _, q := range res.Questions {
		_, err := env.subSvc.SubmitAnswer(ctx, 3, start.SubmissionID, q.ID, correctOption(&q))
		require.NoError(t, err)
	}
	_, err = env.subSvc.Finalize(ctx, 3, start.SubmissionID)
	require.NoError(t, err)

	res, err = env.paperSvc.GenerateAdaptivePracticeTest(ctx, 3, AdaptivePracticeRequest{SubjectID: subj.ID, QuestionCount: 4})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyHard, res.Difficulty)
}
