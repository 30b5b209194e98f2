package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/types"
)

// fakeAdminRepo is an in-memory AdminRepository.
type fakeAdminRepo struct {
	mu        sync.Mutex
	admins    []types.Admin
	seq       int
	getErr    error
	createErr error
}

func (f *fakeAdminRepo) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return types.Admin{}, f.getErr
	}
	for _, a := range f.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (f *fakeAdminRepo) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return types.Admin{}, f.createErr
	}
	for _, a := range f.admins {
		if a.Email == admin.Email {
			return types.Admin{}, store.ErrConflict
		}
	}
	f.seq++
	if admin.ID == "" {
		admin.ID = fmt.Sprintf("admin-%d", f.seq)
	}
	admin.CreatedAt = time.Date(2026, 3, 1, 0, 0, f.seq, 0, time.UTC)
	f.admins = append(f.admins, admin)
	return admin, nil
}

func (f *fakeAdminRepo) List(ctx context.Context) ([]types.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]types.Admin(nil), f.admins...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAdminRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.admins), nil
}

// fakeQuestionRepo is an in-memory QuestionRepository whose Update is
// all-or-nothing like the postgres implementation.
type fakeQuestionRepo struct {
	mu         sync.Mutex
	questions  map[string]types.Question
	seq        int
	tcSeq      int
	failInsert bool
	listErr    error
	lastFilter types.QuestionFilter
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[string]types.Question)}
}

func (f *fakeQuestionRepo) List(ctx context.Context, filter types.QuestionFilter) ([]types.QuestionSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}

	var matched []types.Question
	for _, q := range f.questions {
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

	total := len(matched)
	out := make([]types.QuestionSummary, 0)
	for i := filter.Offset; i < total && i < filter.Offset+filter.Limit; i++ {
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
	return out, total, nil
}

func (f *fakeQuestionRepo) Get(ctx context.Context, id string) (types.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (f *fakeQuestionRepo) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.questions[id]
	return ok, nil
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question types.Question) (types.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return types.Question{}, errors.New("insert failed")
	}
	f.seq++
	question.ID = fmt.Sprintf("q-%d", f.seq)
	question.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	question.UpdatedAt = question.CreatedAt
	question.TestCases = f.assign(question.ID, question.TestCases)
	f.questions[question.ID] = question
	return cloneQuestion(question), nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, id string, patch types.QuestionPatch) (types.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	q = cloneQuestion(q)
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
		if f.failInsert || len(patch.TestCases) == 0 {
			return types.Question{}, errors.New("insert test cases failed")
		}
		q.TestCases = f.assign(id, patch.TestCases)
	}
	q.UpdatedAt = q.UpdatedAt.Add(time.Second)
	f.questions[id] = q
	return cloneQuestion(q), nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.questions[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions), nil
}

func (f *fakeQuestionRepo) CountTestCases(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.questions {
		n += len(q.TestCases)
	}
	return n, nil
}

func (f *fakeQuestionRepo) CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[types.Difficulty]int{}
	for _, q := range f.questions {
		counts[q.Difficulty]++
	}
	return counts, nil
}

func (f *fakeQuestionRepo) Recent(ctx context.Context, limit int) ([]types.RecentQuestion, error) {
	summaries, _, err := f.List(ctx, types.QuestionFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	recent := make([]types.RecentQuestion, 0, len(summaries))
	for _, s := range summaries {
		recent = append(recent, types.RecentQuestion{ID: s.ID, Title: s.Title, Difficulty: s.Difficulty, Language: s.Language, CreatedAt: s.CreatedAt})
	}
	return recent, nil
}

func (f *fakeQuestionRepo) assign(questionID string, testCases []types.TestCase) []types.TestCase {
	out := make([]types.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		f.tcSeq++
		tc.ID = fmt.Sprintf("tc-%d", f.tcSeq)
		tc.QuestionID = questionID
		out = append(out, tc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func cloneQuestion(q types.Question) types.Question {
	q.TestCases = append([]types.TestCase(nil), q.TestCases...)
	return q
}

// recordingNotifier records QuestionNotifier calls.
type recordingNotifier struct {
	saved   []string
	deleted []string
}

func (n *recordingNotifier) QuestionSaved(ctx context.Context, question types.Question) {
	n.saved = append(n.saved, question.ID)
}

func (n *recordingNotifier) QuestionDeleted(ctx context.Context, id string) {
	n.deleted = append(n.deleted, id)
}

// memoryStorage is an in-memory storage.ObjectStorage.
type memoryStorage struct {
	objects map[string][]byte
	putErr  error
}

func (m *memoryStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) Bucket() string { return "test-bucket" }

type publishedMessage struct {
	channel string
	data    []byte
	attrs   map[string]string
}

// memoryPublisher is an in-memory mq.Publisher.
type memoryPublisher struct {
	messages []publishedMessage
	err      error
}

func (m *memoryPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.messages = append(m.messages, publishedMessage{channel: channel, data: data, attrs: attrs})
	return fmt.Sprintf("msg-%d", len(m.messages)), nil
}

func (m *memoryPublisher) Close() error { return nil }
