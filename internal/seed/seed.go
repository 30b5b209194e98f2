// Package seed loads development data: the default admin account and a
// handful of sample questions.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/soliton-oj/adminserver/config"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/types"
)

// AdminUpserter creates or refreshes an admin keyed by email.
type AdminUpserter interface {
	UpsertByEmail(ctx context.Context, admin types.Admin) (types.Admin, error)
}

// QuestionStore is the subset of the question repository seeding needs.
type QuestionStore interface {
	Get(ctx context.Context, id string) (types.Question, error)
	Create(ctx context.Context, question types.Question) (types.Question, error)
}

// Result reports what a seeding run did.
type Result struct {
	Admin            types.Admin
	CreatedQuestions []string
	SkippedQuestions []string
}

// Seeder is idempotent: the admin is upserted with a freshly hashed
// password, and sample questions are only created when their fixed id is
// not taken yet.
type Seeder struct {
	admins     AdminUpserter
	questions  QuestionStore
	bcryptCost int
	logger     *slog.Logger
}

func NewSeeder(admins AdminUpserter, questions QuestionStore, bcryptCost int, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{admins: admins, questions: questions, bcryptCost: bcryptCost, logger: logger}
}

func (s *Seeder) Run(ctx context.Context, cfg config.SeedConfig) (Result, error) {
	hash, err := services.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash seed password: %w", err)
	}

	admin, err := s.admins.UpsertByEmail(ctx, types.Admin{
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return Result{}, fmt.Errorf("upsert seed admin: %w", err)
	}
	s.logger.Info("seeded admin", "email", admin.Email, "id", admin.ID)

	result := Result{Admin: admin}
	for _, sample := range SampleQuestions() {
		if _, err := s.questions.Get(ctx, sample.ID); err == nil {
			result.SkippedQuestions = append(result.SkippedQuestions, sample.ID)
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return result, fmt.Errorf("lookup sample question %q: %w", sample.Title, err)
		}

		sample.CreatedByID = admin.ID
		created, err := s.questions.Create(ctx, sample)
		if err != nil {
			return result, fmt.Errorf("create sample question %q: %w", sample.Title, err)
		}
		result.CreatedQuestions = append(result.CreatedQuestions, created.ID)
		s.logger.Info("seeded question", "title", created.Title, "id", created.ID, "test_cases", len(created.TestCases))
	}

	return result, nil
}

// sampleID derives a stable id so reruns find the questions they created.
func sampleID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("soliton:seed:"+name)).String()
}

func strPtr(s string) *string { return &s }

// SampleQuestions returns the sample questions with their fixed ids.
func SampleQuestions() []types.Question {
	return []types.Question{
		{
			ID:              sampleID("hello-world"),
			Title:           "Hello World",
			Description:     "## Hello World\n\nWrite a C program that prints `Hello, World!` to standard output.\n\n### Example\n\n**Output:**\n```\nHello, World!\n```",
			Difficulty:      types.DifficultyEasy,
			Language:        types.LanguageC,
			BoilerplateCode: strPtr("#include <stdio.h>\n\nint main() {\n    // Write your code here\n    return 0;\n}"),
			TestCases: []types.TestCase{
				{Input: "", Output: "Hello, World!\n", IsPublic: true, Order: 1},
				{Input: "", Output: "Hello, World!\n", IsPublic: false, Order: 2},
			},
		},
		{
			ID:              sampleID("sum-two"),
			Title:           "Sum of Two Numbers",
			Description:     "## Sum of Two Numbers\n\nRead two integers from standard input and print their sum.\n\n### Input\nTwo space-separated integers `a` and `b` (`-10^9 ≤ a, b ≤ 10^9`).\n\n### Output\nA single integer, the sum of `a` and `b`.\n\n### Examples\n\n| Input | Output |\n|-------|--------|\n| `3 5` | `8`    |\n| `-1 1`| `0`    |",
			Difficulty:      types.DifficultyEasy,
			Language:        types.LanguageC,
			BoilerplateCode: strPtr("#include <stdio.h>\n\nint main() {\n    int a, b;\n    // Read input and print the sum\n    return 0;\n}"),
			TestCases: []types.TestCase{
				{Input: "3 5\n", Output: "8\n", IsPublic: true, Order: 1},
				{Input: "-1 1\n", Output: "0\n", IsPublic: true, Order: 2},
				{Input: "0 0\n", Output: "0\n", IsPublic: false, Order: 3},
				{Input: "1000000000 1000000000\n", Output: "2000000000\n", IsPublic: false, Order: 4},
			},
		},
		{
			ID:              sampleID("reverse-array"),
			Title:           "Reverse an Array",
			Description:     "## Reverse an Array\n\nGiven an array of `n` integers, print them in reverse order.\n\n### Input\n- First line: integer `n` (1 ≤ n ≤ 10^5)\n- Second line: `n` space-separated integers\n\n### Output\nThe `n` integers in reverse order, space-separated.\n\n### Example\n\n**Input:**\n```\n5\n1 2 3 4 5\n```\n\n**Output:**\n```\n5 4 3 2 1\n```",
			Difficulty:      types.DifficultyMedium,
			Language:        types.LanguageC,
			BoilerplateCode: strPtr("#include <stdio.h>\n\nint main() {\n    int n;\n    scanf(\"%d\", &n);\n    int arr[n];\n    for (int i = 0; i < n; i++) {\n        scanf(\"%d\", &arr[i]);\n    }\n    // Reverse and print the array\n    return 0;\n}"),
			TestCases: []types.TestCase{
				{Input: "5\n1 2 3 4 5\n", Output: "5 4 3 2 1\n", IsPublic: true, Order: 1},
				{Input: "1\n42\n", Output: "42\n", IsPublic: true, Order: 2},
				{Input: "3\n-1 0 1\n", Output: "1 0 -1\n", IsPublic: false, Order: 3},
				{Input: "6\n10 20 30 40 50 60\n", Output: "60 50 40 30 20 10\n", IsPublic: false, Order: 4},
			},
		},
	}
}
