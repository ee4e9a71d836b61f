package service

import (
	"exam_prep_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleContentTree(t *testing.T) {
	levels := contentLevels{
		subjects: []model.Subject{
			{UUIDBase: model.UUIDBase{ID: "s1"}, Name: "Physics"},
			{UUIDBase: model.UUIDBase{ID: "s2"}, Name: "Chemistry"},
		},
		lessons: []model.Lesson{
			{UUIDBase: model.UUIDBase{ID: "l1"}, SubjectID: "s1", Name: "Mechanics"},
			{UUIDBase: model.UUIDBase{ID: "l2"}, SubjectID: "s1", Name: "Optics"},
			{UUIDBase: model.UUIDBase{ID: "orphan"}, SubjectID: "gone", Name: "Orphan"},
		},
		topics: []model.Topic{
			{UUIDBase: model.UUIDBase{ID: "t1"}, LessonID: "l1", Name: "Kinematics"},
			{UUIDBase: model.UUIDBase{ID: "t-orphan"}, LessonID: "orphan", Name: "Lost"},
		},
		subtopics: []model.Subtopic{
			{UUIDBase: model.UUIDBase{ID: "st1"}, TopicID: "t1", Name: "Projectiles"},
		},
	}
	counts := questionCounts{
		Subjects:  map[string]int64{"s1": 7},
		Lessons:   map[string]int64{"l1": 5, "l2": 2},
		Topics:    map[string]int64{"t1": 3},
		Subtopics: map[string]int64{"st1": 1},
	}
	last := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	overlay := progressOverlay([]model.PracticeProgress{
		{UUIDBase: model.UUIDBase{ID: "p1"}, ContentType: model.ContentLesson, ContentID: "l1", CompletedQuestions: 5, IsCompleted: true, LastAccessedAt: last},
		// same id under another content type must not leak onto the lesson
		{UUIDBase: model.UUIDBase{ID: "p2"}, ContentType: model.ContentTopic, ContentID: "l2", CompletedQuestions: 1},
	})

	roots := assembleContentTree(levels, counts, overlay)
	require.Len(t, roots, 2)
	assert.Equal(t, "s1", roots[0].ID)
	assert.Equal(t, int64(7), roots[0].TotalQuestions)
	assert.Equal(t, "s2", roots[1].ID)
	assert.Empty(t, roots[1].Children)
	assert.Zero(t, roots[1].TotalQuestions)

	require.Len(t, roots[0].Children, 2)
	l1, l2 := roots[0].Children[0], roots[0].Children[1]
	assert.Equal(t, "lesson", l1.Type)
	require.NotNil(t, l1.ProgressID)
	assert.Equal(t, "p1", *l1.ProgressID)
	assert.True(t, l1.IsCompleted)
	assert.Equal(t, 5, l1.CompletedCount)
	assert.Equal(t, last, *l1.LastAccessedAt)
	assert.Nil(t, l2.ProgressID)

	require.Len(t, l1.Children, 1)
	assert.Equal(t, "topic", l1.Children[0].Type)
	require.Len(t, l1.Children[0].Children, 1)
	assert.Equal(t, "subtopic", l1.Children[0].Children[0].Type)
	assert.Equal(t, int64(1), l1.Children[0].Children[0].TotalQuestions)
}

func TestAssembleContentTreeEmpty(t *testing.T) {
	roots := assembleContentTree(contentLevels{}, questionCounts{}, nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}
