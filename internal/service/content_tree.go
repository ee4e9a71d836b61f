package service

import (
	"exam_prep_backend/internal/model"
)

// progressKey identifies one progress row within a user's overlay.
type progressKey struct {
	ContentType model.ContentType
	ContentID   string
}

type questionCounts struct {
	Subjects  map[string]int64 `json:"subjects"`
	Lessons   map[string]int64 `json:"lessons"`
	Topics    map[string]int64 `json:"topics"`
	Subtopics map[string]int64 `json:"subtopics"`
}

type contentLevels struct {
	subjects  []model.Subject
	lessons   []model.Lesson
	topics    []model.Topic
	subtopics []model.Subtopic
}

func progressOverlay(rows []model.PracticeProgress) map[progressKey]*model.PracticeProgress {
	overlay := make(map[progressKey]*model.PracticeProgress, len(rows))
	for i := range rows {
		p := &rows[i]
		overlay[progressKey{ContentType: p.ContentType, ContentID: p.ContentID}] = p
	}
	return overlay
}

func newNode(id, typ, name string, total int64) *model.ContentNode {
	return &model.ContentNode{
		ID:             id,
		Type:           typ,
		Name:           name,
		TotalQuestions: total,
		Children:       []*model.ContentNode{},
	}
}

func applyProgress(n *model.ContentNode, ct model.ContentType, overlay map[progressKey]*model.PracticeProgress) {
	p, ok := overlay[progressKey{ContentType: ct, ContentID: n.ID}]
	if !ok {
		return
	}
	id := p.ID
	last := p.LastAccessedAt
	n.CompletedCount = p.CompletedQuestions
	n.IsCompleted = p.IsCompleted
	n.ProgressID = &id
	n.LastAccessedAt = &last
}

// assembleContentTree links flat level lists into subject trees. Rows whose
// parent is missing from the level above are dropped. Subjects carry no progress.
func assembleContentTree(levels contentLevels, counts questionCounts, overlay map[progressKey]*model.PracticeProgress) []*model.ContentNode {
	roots := make([]*model.ContentNode, 0, len(levels.subjects))
	subjects := make(map[string]*model.ContentNode, len(levels.subjects))
	for _, s := range levels.subjects {
		n := newNode(s.ID, "subject", s.Name, counts.Subjects[s.ID])
		subjects[s.ID] = n
		roots = append(roots, n)
	}

	lessons := make(map[string]*model.ContentNode, len(levels.lessons))
	for _, l := range levels.lessons {
		parent, ok := subjects[l.SubjectID]
		if !ok {
			continue
		}
		n := newNode(l.ID, string(model.ContentLesson), l.Name, counts.Lessons[l.ID])
		applyProgress(n, model.ContentLesson, overlay)
		lessons[l.ID] = n
		parent.Children = append(parent.Children, n)
	}

	topics := make(map[string]*model.ContentNode, len(levels.topics))
	for _, t := range levels.topics {
		parent, ok := lessons[t.LessonID]
		if !ok {
			continue
		}
		n := newNode(t.ID, string(model.ContentTopic), t.Name, counts.Topics[t.ID])
		applyProgress(n, model.ContentTopic, overlay)
		topics[t.ID] = n
		parent.Children = append(parent.Children, n)
	}

	for _, st := range levels.subtopics {
		parent, ok := topics[st.TopicID]
		if !ok {
			continue
		}
		n := newNode(st.ID, string(model.ContentSubtopic), st.Name, counts.Subtopics[st.ID])
		applyProgress(n, model.ContentSubtopic, overlay)
		parent.Children = append(parent.Children, n)
	}
	return roots
}
