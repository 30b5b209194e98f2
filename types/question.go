package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// Difficulty is the closed set of question difficulty levels.
type Difficulty string

// Supported difficulty values.
const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the supported difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Language is the closed set of source languages a question targets.
type Language string

// Supported language values.
const (
	LanguageC   Language = "C"
	LanguageCPP Language = "CPP"
)

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguageC || l == LanguageCPP
}

// Question represents a coding-assessment prompt together with the test
// cases used to grade it.
type Question struct {
	// ID is the unique identifier of the question.
	ID string `json:"id" db:"id"`

	// Title is the human-readable name of the question.
	Title string `json:"title" db:"title"`

	// Description contains the full problem statement.
	Description string `json:"description" db:"description"`

	// Difficulty classifies the question as EASY, MEDIUM or HARD.
	Difficulty Difficulty `json:"difficulty" db:"difficulty"`

	// Language is the source language candidates answer in.
	Language Language `json:"language" db:"language"`

	// BoilerplateCode is the optional starter code shown to candidates.
	BoilerplateCode *string `json:"boilerplateCode" db:"boilerplate_code"`

	// CreatedByID references the admin that created the question.
	CreatedByID string `json:"createdById" db:"created_by_id"`

	// CreatedAt is the timestamp at which the question was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the question.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// TestCases is the set of test cases owned by the question, in
	// ascending Order.
	TestCases []TestCase `json:"testCases"`
}

// TestCase represents a single input/expected-output pair of a question.
type TestCase struct {
	// ID is the unique identifier of the test case.
	ID string `json:"id" db:"id"`

	// QuestionID is the identifier of the owning question.
	QuestionID string `json:"questionId" db:"question_id"`

	// Input is fed to the candidate program. It may be empty.
	Input string `json:"input" db:"input"`

	// Output is the expected output of a correct solution.
	Output string `json:"output" db:"output"`

	// IsPublic marks test cases shown to candidates. Private test cases
	// are used for grading only.
	IsPublic bool `json:"isPublic" db:"is_public"`

	// Order defines the display and execution sequence.
	Order int `json:"order" db:"sort_order"`
}

// QuestionSummary is the list projection of a question. It carries the
// number of test cases but not their content.
type QuestionSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Difficulty    Difficulty `json:"difficulty"`
	Language      Language   `json:"language"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	TestCaseCount int        `json:"testCaseCount"`
}

// QuestionFilter narrows a question listing. Empty fields do not filter.
type QuestionFilter struct {
	Search     string
	Difficulty Difficulty
	Language   Language
	Offset     int
	Limit      int
}

// QuestionPatch describes a partial update. Nil fields are left untouched.
// When ReplaceTestCases is set, TestCases replaces the whole existing set.
type QuestionPatch struct {
	Title            *string
	Description      *string
	Difficulty       *Difficulty
	Language         *Language
	BoilerplateCode  NullableString
	ReplaceTestCases bool
	TestCases        []TestCase
}

// NullableString distinguishes an absent JSON field from an explicit null.
type NullableString struct {
	// Set is true when the field was present in the payload.
	Set bool
	// Valid is false when the field was an explicit null.
	Valid  bool
	String string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		n.String = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.String); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns the value as a nullable pointer.
func (n NullableString) Ptr() *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

// TestCaseInput is one inbound test case of a create or update payload.
type TestCaseInput struct {
	Input    string `json:"input"`
	Output   string `json:"output" validate:"required"`
	IsPublic bool   `json:"isPublic"`
	Order    *int   `json:"order" validate:"omitempty,min=0"`
}

// CreateQuestionRequest is the payload for POST /questions.
type CreateQuestionRequest struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     string          `json:"description" validate:"required"`
	Difficulty      *Difficulty     `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Language        *Language       `json:"language" validate:"omitempty,oneof=C CPP"`
	BoilerplateCode *string         `json:"boilerplateCode"`
	TestCases       []TestCaseInput `json:"testCases" validate:"required,min=1,dive"`
}

// UpdateQuestionRequest is the payload for PUT /questions/{id}. Every
// field is optional; a present testCases array replaces all test cases.
type UpdateQuestionRequest struct {
	Title           *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string         `json:"description" validate:"omitempty,min=1"`
	Difficulty      *Difficulty     `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Language        *Language       `json:"language" validate:"omitempty,oneof=C CPP"`
	BoilerplateCode NullableString  `json:"boilerplateCode"`
	TestCases       []TestCaseInput `json:"testCases" validate:"omitempty,min=1,dive"`
}

// ListQuestionsQuery is the parsed query string of GET /questions.
type ListQuestionsQuery struct {
	Search     string     `json:"search"`
	Difficulty Difficulty `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Language   Language   `json:"language" validate:"omitempty,oneof=C CPP"`
	Page       int        `json:"page" validate:"min=1"`
	Limit      int        `json:"limit" validate:"min=1,max=100"`
}

// Pagination describes the page returned by a list operation.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// QuestionPage is the response of a question listing.
type QuestionPage struct {
	Questions  []QuestionSummary `json:"questions"`
	Pagination Pagination        `json:"pagination"`
}

// RecentQuestion is the dashboard projection of a recently created question.
type RecentQuestion struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Language   Language   `json:"language"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Stats aggregates counts for the admin dashboard.
type Stats struct {
	TotalQuestions        int                `json:"totalQuestions"`
	TotalTestCases        int                `json:"totalTestCases"`
	TotalAdmins           int                `json:"totalAdmins"`
	QuestionsByDifficulty map[Difficulty]int `json:"questionsByDifficulty"`
	RecentQuestions       []RecentQuestion   `json:"recentQuestions"`
}
