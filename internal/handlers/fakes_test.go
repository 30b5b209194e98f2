package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/types"
)

type memAdmins struct {
	mu     sync.Mutex
	admins []types.Admin
}

func (m *memAdmins) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (m *memAdmins) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == admin.Email {
			return types.Admin{}, store.ErrConflict
		}
	}
	admin.ID = uuid.NewString()
	admin.CreatedAt = time.Now().UTC()
	m.admins = append(m.admins, admin)
	return admin, nil
}

func (m *memAdmins) List(ctx context.Context) ([]types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Admin(nil), m.admins...), nil
}

func (m *memAdmins) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.admins), nil
}

type memQuestions struct {
	mu        sync.Mutex
	questions map[string]types.Question
	created   int
	failList  bool
}

func newMemQuestions() *memQuestions {
	return &memQuestions{questions: make(map[string]types.Question)}
}

func (m *memQuestions) List(ctx context.Context, filter types.QuestionFilter) ([]types.QuestionSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, 0, errors.New("pq: connection refused")
	}

	var matched []types.Question
	for _, q := range m.questions {
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Language != "" && q.Language != filter.Language {
			continue
		}
		if s := strings.ToLower(filter.Search); s != "" &&
			!strings.Contains(strings.ToLower(q.Title), s) &&
			!strings.Contains(strings.ToLower(q.Description), s) {
			continue
		}
		matched = append(matched, q)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	out := make([]types.QuestionSummary, 0)
	for i := filter.Offset; i < len(matched) && i < filter.Offset+filter.Limit; i++ {
		q := matched[i]
		out = append(out, types.QuestionSummary{
			ID:            q.ID,
			Title:         q.Title,
			Difficulty:    q.Difficulty,
			Language:      q.Language,
			CreatedAt:     q.CreatedAt,
			UpdatedAt:     q.UpdatedAt,
			TestCaseCount: len(q.TestCases),
		})
	}
	return out, len(matched), nil
}

func (m *memQuestions) Get(ctx context.Context, id string) (types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	q.TestCases = append([]types.TestCase(nil), q.TestCases...)
	return q, nil
}

func (m *memQuestions) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.questions[id]
	return ok, nil
}

func (m *memQuestions) Create(ctx context.Context, question types.Question) (types.Question, error) {
	m.mu.Lock()
	m.created++
	question.ID = uuid.NewString()
	question.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.created) * time.Minute)
	question.UpdatedAt = question.CreatedAt
	question.TestCases = withIDs(question.ID, question.TestCases)
	m.questions[question.ID] = question
	m.mu.Unlock()
	return m.Get(ctx, question.ID)
}

func (m *memQuestions) Update(ctx context.Context, id string, patch types.QuestionPatch) (types.Question, error) {
	m.mu.Lock()
	q, ok := m.questions[id]
	if !ok {
		m.mu.Unlock()
		return types.Question{}, store.ErrNotFound
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Description != nil {
		q.Description = *patch.Description
	}
	if patch.Difficulty != nil {
		q.Difficulty = *patch.Difficulty
	}
	if patch.Language != nil {
		q.Language = *patch.Language
	}
	if patch.BoilerplateCode.Set {
		q.BoilerplateCode = patch.BoilerplateCode.Ptr()
	}
	if patch.ReplaceTestCases {
		q.TestCases = withIDs(id, patch.TestCases)
	}
	q.UpdatedAt = q.UpdatedAt.Add(time.Second)
	m.questions[id] = q
	m.mu.Unlock()
	return m.Get(ctx, id)
}

func (m *memQuestions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memQuestions) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions), nil
}

func (m *memQuestions) CountTestCases(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.questions {
		n += len(q.TestCases)
	}
	return n, nil
}

func (m *memQuestions) CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[types.Difficulty]int{}
	for _, q := range m.questions {
		counts[q.Difficulty]++
	}
	return counts, nil
}

func (m *memQuestions) Recent(ctx context.Context, limit int) ([]types.RecentQuestion, error) {
	summaries, _, err := m.List(ctx, types.QuestionFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	recent := make([]types.RecentQuestion, 0, len(summaries))
	for _, s := range summaries {
		recent = append(recent, types.RecentQuestion{ID: s.ID, Title: s.Title, Difficulty: s.Difficulty, Language: s.Language, CreatedAt: s.CreatedAt})
	}
	return recent, nil
}

func withIDs(questionID string, testCases []types.TestCase) []types.TestCase {
	out := make([]types.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		tc.ID = uuid.NewString()
		tc.QuestionID = questionID
		out = append(out, tc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
