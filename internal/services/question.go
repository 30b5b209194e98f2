package services

import (
	"context"
	"fmt"
	"math"

	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
)

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	List(ctx context.Context, filter types.QuestionFilter) ([]types.QuestionSummary, int, error)
	Get(ctx context.Context, id string) (types.Question, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, question types.Question) (types.Question, error)
	Update(ctx context.Context, id string, patch types.QuestionPatch) (types.Question, error)
	Delete(ctx context.Context, id string) error
}

// QuestionNotifier is told about committed question changes.
type QuestionNotifier interface {
	QuestionSaved(ctx context.Context, question types.Question)
	QuestionDeleted(ctx context.Context, id string)
}

// QuestionService encapsulates question use-cases.
type QuestionService struct {
	repo     QuestionRepository
	notifier QuestionNotifier
}

// NewQuestionService constructs the service. notifier may be nil.
func NewQuestionService(repo QuestionRepository, notifier QuestionNotifier) *QuestionService {
	return &QuestionService{repo: repo, notifier: notifier}
}

func (s *QuestionService) List(ctx context.Context, query types.ListQuestionsQuery) (types.QuestionPage, error) {
	if err := validation.Struct(query); err != nil {
		return types.QuestionPage{}, err
	}

	questions, total, err := s.repo.List(ctx, types.QuestionFilter{
		Search:     query.Search,
		Difficulty: query.Difficulty,
		Language:   query.Language,
		Offset:     pageOffset(query.Page, query.Limit),
		Limit:      query.Limit,
	})
	if err != nil {
		return types.QuestionPage{}, err
	}

	return types.QuestionPage{
		Questions: questions,
		Pagination: types.Pagination{
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: (total + query.Limit - 1) / query.Limit,
		},
	}, nil
}

// pageOffset returns the row offset of page, saturating at math.MaxInt
// so a huge page reads past the end instead of wrapping around.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func (s *QuestionService) Get(ctx context.Context, id string) (types.Question, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new question owned by the acting admin.
func (s *QuestionService) Create(ctx context.Context, actor *types.Session, req types.CreateQuestionRequest) (types.Question, error) {
	if actor == nil || actor.AdminID == "" {
		return types.Question{}, ErrUnauthorized
	}
	if err := validation.Struct(req); err != nil {
		return types.Question{}, err
	}

	difficulty := types.DifficultyMedium
	if req.Difficulty != nil {
		difficulty = *req.Difficulty
	}
	language := types.LanguageC
	if req.Language != nil {
		language = *req.Language
	}

	created, err := s.repo.Create(ctx, types.Question{
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      difficulty,
		Language:        language,
		BoilerplateCode: req.BoilerplateCode,
		CreatedByID:     actor.AdminID,
		TestCases:       testCasesFromInput(req.TestCases),
	})
	if err != nil {
		return types.Question{}, fmt.Errorf("create question: %w", err)
	}

	if s.notifier != nil {
		s.notifier.QuestionSaved(ctx, created)
	}
	return created, nil
}

// Update applies a partial update. Existence is checked before the
// payload is validated or anything is written. A present testCases list
// replaces the whole set atomically together with the scalar fields.
func (s *QuestionService) Update(ctx context.Context, id string, req types.UpdateQuestionRequest) (types.Question, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return types.Question{}, fmt.Errorf("check question: %w", err)
	}
	if !exists {
		return types.Question{}, store.ErrNotFound
	}

	if err := validation.Struct(req); err != nil {
		return types.Question{}, err
	}

	patch := types.QuestionPatch{
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		Language:        req.Language,
		BoilerplateCode: req.BoilerplateCode,
	}
	if req.TestCases != nil {
		patch.ReplaceTestCases = true
		patch.TestCases = testCasesFromInput(req.TestCases)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.Question{}, err
	}

	if s.notifier != nil {
		s.notifier.QuestionSaved(ctx, updated)
	}
	return updated, nil
}

// Delete removes the question and, by ownership, its test cases.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.QuestionDeleted(ctx, id)
	}
	return nil
}

// testCasesFromInput defaults a missing order to the input position.
func testCasesFromInput(inputs []types.TestCaseInput) []types.TestCase {
	testCases := make([]types.TestCase, 0, len(inputs))
	for i, in := range inputs {
		order := i
		if in.Order != nil {
			order = *in.Order
		}
		testCases = append(testCases, types.TestCase{
			Input:    in.Input,
			Output:   in.Output,
			IsPublic: in.IsPublic,
			Order:    order,
		})
	}
	return testCases
}
