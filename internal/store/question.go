package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soliton-oj/adminserver/types"
)

// QuestionRepository handles persistence for questions and the test cases
// they own.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// List returns one page of question summaries, newest first, together with
// the total number of questions matching the filter.
func (r *QuestionRepository) List(ctx context.Context, filter types.QuestionFilter) ([]types.QuestionSummary, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	where, args := buildQuestionFilter(filter)

	countQuery := `SELECT COUNT(1) FROM questions q` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT q.id, q.title, q.difficulty, q.language, q.created_at, q.updated_at,
		       (SELECT COUNT(1) FROM test_cases tc WHERE tc.question_id = q.id) AS test_case_count
		FROM questions q%s
		ORDER BY q.created_at DESC, q.id DESC
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, filter.Offset, filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := make([]types.QuestionSummary, 0, filter.Limit)
	for rows.Next() {
		var q types.QuestionSummary
		if err := rows.Scan(
			&q.ID,
			&q.Title,
			&q.Difficulty,
			&q.Language,
			&q.CreatedAt,
			&q.UpdatedAt,
			&q.TestCaseCount,
		); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

// buildQuestionFilter ANDs the equality filters together; the search term
// matches title OR description, case-insensitively.
func buildQuestionFilter(filter types.QuestionFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		clauses = append(clauses, fmt.Sprintf("q.difficulty = $%d", len(args)))
	}
	if filter.Language != "" {
		args = append(args, filter.Language)
		clauses = append(clauses, fmt.Sprintf("q.language = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(`(q.title ILIKE $%d ESCAPE '\' OR q.description ILIKE $%d ESCAPE '\')`, n, n))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Get returns the question with its test cases in ascending order.
func (r *QuestionRepository) Get(ctx context.Context, id string) (types.Question, error) {
	return getQuestion(ctx, r.db, id)
}

// Exists reports whether a question with the given id exists.
func (r *QuestionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts the question and all of its test cases in one
// transaction.
func (r *QuestionRepository) Create(ctx context.Context, question types.Question) (types.Question, error) {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now

	var created types.Question
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO questions (id, title, description, difficulty, language, boilerplate_code, created_by_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		if _, err := tx.ExecContext(
			ctx,
			query,
			question.ID,
			question.Title,
			question.Description,
			question.Difficulty,
			question.Language,
			question.BoilerplateCode,
			question.CreatedByID,
			question.CreatedAt,
			question.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}

		if err := insertTestCases(ctx, tx, question.ID, question.TestCases); err != nil {
			return err
		}

		var err error
		created, err = getQuestion(ctx, tx, question.ID)
		return err
	})
	if err != nil {
		return types.Question{}, err
	}
	return created, nil
}

// Update applies patch to the question. Scalar fields and, when requested,
// the full test-case replacement (delete all, then insert the new set) are
// committed together or not at all.
func (r *QuestionRepository) Update(ctx context.Context, id string, patch types.QuestionPatch) (types.Question, error) {
	var updated types.Question
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		sets, args := buildQuestionPatch(patch)
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE questions SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}

		if patch.ReplaceTestCases {
			if _, err := tx.ExecContext(ctx, `DELETE FROM test_cases WHERE question_id = $1`, id); err != nil {
				return fmt.Errorf("delete test cases: %w", err)
			}
			if err := insertTestCases(ctx, tx, id, patch.TestCases); err != nil {
				return err
			}
		}

		updated, err = getQuestion(ctx, tx, id)
		return err
	})
	if err != nil {
		return types.Question{}, err
	}
	return updated, nil
}

func buildQuestionPatch(patch types.QuestionPatch) ([]string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Difficulty != nil {
		add("difficulty", *patch.Difficulty)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	if patch.BoilerplateCode.Set {
		add("boilerplate_code", patch.BoilerplateCode.Ptr())
	}
	add("updated_at", time.Now().UTC())

	return sets, args
}

// Delete removes the question; its test cases go with it via ON DELETE
// CASCADE.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM questions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM questions`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *QuestionRepository) CountTestCases(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM test_cases`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// CountByDifficulty returns the number of questions per difficulty. Levels
// without questions are reported as zero.
func (r *QuestionRepository) CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT difficulty, COUNT(1) FROM questions GROUP BY difficulty`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.Difficulty]int, len(types.Difficulties))
	for _, d := range types.Difficulties {
		counts[d] = 0
	}
	for rows.Next() {
		var difficulty types.Difficulty
		var n int
		if err := rows.Scan(&difficulty, &n); err != nil {
			return nil, err
		}
		counts[difficulty] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Recent returns the newest questions, at most limit of them.
func (r *QuestionRepository) Recent(ctx context.Context, limit int) ([]types.RecentQuestion, error) {
	const query = `
		SELECT id, title, difficulty, language, created_at
		FROM questions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := make([]types.RecentQuestion, 0, limit)
	for rows.Next() {
		var q types.RecentQuestion
		if err := rows.Scan(&q.ID, &q.Title, &q.Difficulty, &q.Language, &q.CreatedAt); err != nil {
			return nil, err
		}
		recent = append(recent, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recent, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getQuestion(ctx context.Context, q queryer, id string) (types.Question, error) {
	const query = `
		SELECT id, title, description, difficulty, language, boilerplate_code, created_by_id, created_at, updated_at
		FROM questions
		WHERE id = $1`
	var question types.Question
	var boilerplate sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&question.ID,
		&question.Title,
		&question.Description,
		&question.Difficulty,
		&question.Language,
		&boilerplate,
		&question.CreatedByID,
		&question.CreatedAt,
		&question.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	if boilerplate.Valid {
		question.BoilerplateCode = &boilerplate.String
	}

	testCases, err := listTestCases(ctx, q, id)
	if err != nil {
		return types.Question{}, err
	}
	question.TestCases = testCases
	return question, nil
}

func listTestCases(ctx context.Context, q queryer, questionID string) ([]types.TestCase, error) {
	const query = `
		SELECT id, question_id, input, output, is_public, sort_order
		FROM test_cases
		WHERE question_id = $1
		ORDER BY sort_order ASC, id ASC`
	rows, err := q.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	testCases := make([]types.TestCase, 0)
	for rows.Next() {
		var tc types.TestCase
		if err := rows.Scan(&tc.ID, &tc.QuestionID, &tc.Input, &tc.Output, &tc.IsPublic, &tc.Order); err != nil {
			return nil, err
		}
		testCases = append(testCases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return testCases, nil
}

func insertTestCases(ctx context.Context, tx *sql.Tx, questionID string, testCases []types.TestCase) error {
	if len(testCases) == 0 {
		return errors.New("a question requires at least one test case")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO test_cases (id, question_id, input, output, is_public, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, tc := range testCases {
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, questionID, tc.Input, tc.Output, tc.IsPublic, tc.Order); err != nil {
			return fmt.Errorf("insert test case %d: %w", i, err)
		}
	}
	return nil
}
