// Package validation checks inbound payloads against their declared
// constraints and reports every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/soliton-oj/adminserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// FieldError names one invalid field and why it is invalid.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a payload fails validation. It carries every
// field error found, never just the first.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New builds an Error from the given field errors.
func New(fields ...FieldError) *Error {
	return &Error{Fields: fields}
}

// AsError extracts a validation Error from err.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates a request payload and returns an *Error listing every
// violated constraint, or nil.
func Struct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		fields = append(fields, FieldError{
			Field:   path,
			Message: message(path, fe),
		})
	}
	return &Error{Fields: fields}
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// fieldPath turns "CreateQuestionRequest.testCases[0].output" into
// "testCases.0.output".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

var labels = map[string]string{
	"email":       "Email",
	"password":    "Password",
	"name":        "Name",
	"title":       "Title",
	"description": "Description",
	"difficulty":  "Difficulty",
	"language":    "Language",
	"output":      "Expected output",
	"order":       "Order",
	"page":        "Page",
	"limit":       "Limit",
}

func message(path string, fe validator.FieldError) string {
	if path == "testCases" && (fe.Tag() == "required" || fe.Tag() == "min") {
		return "At least one test case is required"
	}

	label, ok := labels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return label + " is required"
			}
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s characters or less", label, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// ListQuery coerces the GET /questions query string into a
// ListQuestionsQuery, applying defaults and validating every field.
func ListQuery(values url.Values) (types.ListQuestionsQuery, error) {
	query := types.ListQuestionsQuery{
		Search:     strings.TrimSpace(values.Get("search")),
		Difficulty: types.Difficulty(strings.TrimSpace(values.Get("difficulty"))),
		Language:   types.Language(strings.TrimSpace(values.Get("language"))),
		Page:       defaultPage,
		Limit:      defaultLimit,
	}

	var fields []FieldError
	if n, ok, err := coerceInt(values.Get("page")); err != nil {
		fields = append(fields, FieldError{Field: "page", Message: "Page must be an integer"})
	} else if ok {
		query.Page = n
	}
	if n, ok, err := coerceInt(values.Get("limit")); err != nil {
		fields = append(fields, FieldError{Field: "limit", Message: "Limit must be an integer"})
	} else if ok {
		query.Limit = n
	}

	if err := Struct(query); err != nil {
		verr, ok := AsError(err)
		if !ok {
			return types.ListQuestionsQuery{}, err
		}
		for _, f := range verr.Fields {
			if hasField(fields, f.Field) {
				continue
			}
			fields = append(fields, f)
		}
	}

	if len(fields) > 0 {
		return types.ListQuestionsQuery{}, &Error{Fields: fields}
	}
	return query, nil
}

func coerceInt(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func hasField(fields []FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
