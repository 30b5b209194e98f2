package types

// TestcaseBundle is the exported snapshot of a question's test cases,
// written to object storage for downstream graders.
type TestcaseBundle struct {
	// QuestionID identifies the question the bundle belongs to.
	QuestionID string `json:"questionId"`

	// Language is the source language the test cases target.
	Language Language `json:"language"`

	// SHA256 is the hex encoded hash of the canonical test-case JSON. It
	// changes exactly when the test-case set changes.
	SHA256 string `json:"sha256"`

	// TestCases is the ordered test-case set.
	TestCases []TestCase `json:"testCases"`
}

// Question event types published on the events channel.
const (
	QuestionEventSaved   = "question.saved"
	QuestionEventDeleted = "question.deleted"
)

// QuestionEvent notifies consumers that a question changed.
type QuestionEvent struct {
	Type       string `json:"type"`
	QuestionID string `json:"questionId"`
	ObjectKey  string `json:"objectKey,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
}
