package service

import (
	"context"
	"encoding/json"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock lets tests advance the service's notion of now.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func withClock(env *testEnv) *clock {
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	env.progressSvc.now = c.now
	return c
}

func TestStartPracticeProgressIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	clk := withClock(env)
	subj := env.subject(t, "stream-1", "Physics")
	for i := 0; i < 3; i++ {
		env.question(t, questionSpec{subjectID: subj.ID, topicID: "topic-1"})
	}

	first, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "topic", ContentID: "topic-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalQuestions, "counted from the pool")
	assert.Equal(t, model.ContentTopic, first.ContentType)

	five := 5
	_, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, first.ID, ProgressPatch{CurrentQuestionIndex: &five})
	require.NoError(t, err)

	clk.advance(time.Hour)
	second, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "TOPIC", ContentID: "topic-1", TotalQuestions: 99})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.TotalQuestions, "restart keeps existing totals")
	assert.Equal(t, 5, second.CurrentQuestionIndex)
	assert.WithinDuration(t, clk.t, second.LastAccessedAt, time.Second)

	var rows int64
	require.NoError(t, env.db.Model(&model.PracticeProgress{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestStartPracticeProgressValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "chapter", ContentID: "x"})
	assert.ErrorIs(t, err, util.ErrUnsupportedContentType)

	_, err = env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson"})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	_, err = env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson", ContentID: "x", TotalQuestions: -1})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson", ContentID: "x", TotalQuestions: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, p.TotalQuestions)
}

func TestUpdatePracticeProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson", ContentID: "l1", TotalQuestions: 4})
	require.NoError(t, err)

	three := 3
	visited := []string{"q1", "q2", "q1"}
	updated, err := env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{CompletedQuestions: &three, VisitedQuestions: &visited})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.CompletedQuestions)
	assert.Equal(t, []string{"q1", "q2"}, []string(updated.VisitedQuestions))
	assert.False(t, updated.IsCompleted)

	four := 4
	updated, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{CompletedQuestions: &four})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted, "completes when every question is done")

	no := false
	updated, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{IsCompleted: &no})
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted, "explicit flag wins")

	_, err = env.progressSvc.UpdatePracticeProgress(ctx, 2, p.ID, ProgressPatch{CompletedQuestions: &four})
	assert.ErrorIs(t, err, util.ErrForbidden)

	neg := -1
	_, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{CurrentQuestionIndex: &neg})
	assert.ErrorIs(t, err, util.ErrInvalidArgument)

	_, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, "missing", ProgressPatch{})
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
}

func TestUpdatePracticeProgressZeroTotalNeverAutoCompletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson", ContentID: "empty"})
	require.NoError(t, err)
	require.Zero(t, p.TotalQuestions)

	zero := 0
	updated, err := env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{CompletedQuestions: &zero})
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
}

func TestPracticeSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.question(t, questionSpec{topicID: "t1"})
	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "topic", ContentID: "t1"})
	require.NoError(t, err)

	yes := true
	ten := 10
	s1, err := env.progressSvc.CreatePracticeSession(ctx, 1, p.ID, SessionRequest{
		QuestionID: q.ID,
		UserAnswer: json.RawMessage(`{"optionId":"a"}`),
		IsCorrect:  &yes,
		TimeSpent:  &ten,
	})
	require.NoError(t, err)
	assert.True(t, s1.IsCorrect)
	assert.Equal(t, 10, s1.TimeSpent)
	assert.JSONEq(t, `{"optionId":"a"}`, string(s1.UserAnswer))

	no := false
	s2, err := env.progressSvc.CreatePracticeSession(ctx, 1, p.ID, SessionRequest{QuestionID: q.ID, IsCorrect: &no})
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID, "same question reuses the session")
	assert.False(t, s2.IsCorrect)
	assert.Equal(t, 10, s2.TimeSpent)

	var sessions int64
	require.NoError(t, env.db.Model(&model.PracticeQuestionSession{}).Count(&sessions).Error)
	assert.Equal(t, int64(1), sessions)

	stored, err := env.progressSvc.ProgressRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{q.ID}, []string(stored.VisitedQuestions))

	twenty := 20
	s3, err := env.progressSvc.UpdatePracticeSession(ctx, 1, s1.ID, SessionPatch{TimeSpent: &twenty, IsChecked: &yes})
	require.NoError(t, err)
	assert.Equal(t, 20, s3.TimeSpent)
	assert.True(t, s3.IsChecked)

	_, err = env.progressSvc.UpdatePracticeSession(ctx, 2, s1.ID, SessionPatch{TimeSpent: &twenty})
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, err = env.progressSvc.UpdatePracticeSession(ctx, 1, "missing", SessionPatch{})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = env.progressSvc.CreatePracticeSession(ctx, 1, p.ID, SessionRequest{QuestionID: "missing"})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	_, err = env.progressSvc.CreatePracticeSession(ctx, 2, p.ID, SessionRequest{QuestionID: q.ID})
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestContentStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stats, err := env.progressSvc.GetContentStats(ctx, 1, "subtopic", "st1")
	require.NoError(t, err)
	assert.Equal(t, model.ContentStats{}, *stats)

	_, err = env.progressSvc.GetContentStats(ctx, 1, "subject", "s1")
	assert.ErrorIs(t, err, util.ErrUnsupportedContentType)

	qs := []*model.Question{
		env.question(t, questionSpec{subtopicID: "st1"}),
		env.question(t, questionSpec{subtopicID: "st1"}),
		env.question(t, questionSpec{subtopicID: "st1"}),
	}
	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "subtopic", ContentID: "st1"})
	require.NoError(t, err)
	for i, q := range qs {
		correct := i != 2
		spent := 15
		_, err := env.progressSvc.CreatePracticeSession(ctx, 1, p.ID, SessionRequest{QuestionID: q.ID, IsCorrect: &correct, TimeSpent: &spent})
		require.NoError(t, err)
	}

	stats, err = env.progressSvc.GetContentStats(ctx, 1, "subtopic", "st1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalQuestions)
	assert.Equal(t, 66.67, stats.Accuracy)
	assert.Equal(t, 45, stats.TimeSpent)
	assert.NotNil(t, stats.LastAccessed)
}

func TestPracticeHistoryAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	clk := withClock(env)

	older, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "lesson", ContentID: "l1", TotalQuestions: 2})
	require.NoError(t, err)
	clk.advance(time.Minute)
	newer, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "topic", ContentID: "t1", TotalQuestions: 2})
	require.NoError(t, err)
	_, err = env.progressSvc.StartPracticeProgress(ctx, 2, StartProgressRequest{ContentType: "topic", ContentID: "t1", TotalQuestions: 2})
	require.NoError(t, err)

	history, err := env.progressSvc.GetPracticeHistory(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.ID, history[0].ProgressID)
	assert.Equal(t, older.ID, history[1].ProgressID)

	history, err = env.progressSvc.GetPracticeHistory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	q := env.question(t, questionSpec{lessonID: "l1"})
	_, err = env.progressSvc.CreatePracticeSession(ctx, 1, older.ID, SessionRequest{QuestionID: q.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, env.progressSvc.DeletePracticeProgress(ctx, 2, older.ID), util.ErrForbidden)
	require.NoError(t, env.progressSvc.DeletePracticeProgress(ctx, 1, older.ID))
	assert.ErrorIs(t, env.progressSvc.DeletePracticeProgress(ctx, 1, older.ID), util.ErrProgressNotFound)

	var sessions int64
	require.NoError(t, env.db.Model(&model.PracticeQuestionSession{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
}

func TestGetContentTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	physics := env.subject(t, "stream-1", "Physics")
	other := env.subject(t, "stream-2", "History")
	lesson := &model.Lesson{SubjectID: physics.ID, Name: "Mechanics"}
	require.NoError(t, env.db.Create(lesson).Error)
	otherLesson := &model.Lesson{SubjectID: other.ID, Name: "Ancient"}
	require.NoError(t, env.db.Create(otherLesson).Error)
	topic := &model.Topic{LessonID: lesson.ID, Name: "Kinematics"}
	require.NoError(t, env.db.Create(topic).Error)
	subtopic := &model.Subtopic{TopicID: topic.ID, Name: "Projectiles"}
	require.NoError(t, env.db.Create(subtopic).Error)

	env.question(t, questionSpec{subjectID: physics.ID, lessonID: lesson.ID, topicID: topic.ID, subtopicID: subtopic.ID})
	env.question(t, questionSpec{subjectID: physics.ID, lessonID: lesson.ID, topicID: topic.ID})

	p, err := env.progressSvc.StartPracticeProgress(ctx, 1, StartProgressRequest{ContentType: "topic", ContentID: topic.ID})
	require.NoError(t, err)
	one := 1
	_, err = env.progressSvc.UpdatePracticeProgress(ctx, 1, p.ID, ProgressPatch{CompletedQuestions: &one})
	require.NoError(t, err)

	tree, err := env.progressSvc.GetContentTree(ctx, 1, "stream-1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	root := tree[0]
	assert.Equal(t, physics.ID, root.ID)
	assert.Equal(t, int64(2), root.TotalQuestions)
	assert.Nil(t, root.ProgressID)

	require.Len(t, root.Children, 1)
	ln := root.Children[0]
	assert.Equal(t, "lesson", ln.Type)
	assert.Equal(t, int64(2), ln.TotalQuestions)

	require.Len(t, ln.Children, 1)
	tn := ln.Children[0]
	assert.Equal(t, "Kinematics", tn.Name)
	require.NotNil(t, tn.ProgressID)
	assert.Equal(t, p.ID, *tn.ProgressID)
	assert.Equal(t, 1, tn.CompletedCount)
	assert.False(t, tn.IsCompleted)

	require.Len(t, tn.Children, 1)
	assert.Equal(t, int64(1), tn.Children[0].TotalQuestions)
	assert.Nil(t, tn.Children[0].ProgressID)

	all, err := env.progressSvc.GetContentTree(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// other users see no overlay
	for _, n := range all {
		for _, l := range n.Children {
			for _, tp := range l.Children {
				assert.Nil(t, tp.ProgressID)
			}
		}
	}
}

func TestGetContentQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.question(t, questionSpec{lessonID: "l1"})
	env.question(t, questionSpec{lessonID: "l1"})
	env.question(t, questionSpec{lessonID: "l2"})

	qs, err := env.progressSvc.GetContentQuestions(ctx, "lesson", "l1")
	require.NoError(t, err)
	assert.Len(t, qs, 2)
	for _, q := range qs {
		assert.Len(t, q.Options, 4)
	}

	_, err = env.progressSvc.GetContentQuestions(ctx, "stream", "l1")
	assert.ErrorIs(t, err, util.ErrUnsupportedContentType)
}
