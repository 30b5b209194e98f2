package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
)

const maxBodyBytes = 1 << 20

const (
	msgUnauthorized      = "Unauthorized"
	msgInternal          = "Internal server error"
	msgValidationFailed  = "Validation failed"
	msgInvalidBody       = "Invalid request body"
	msgQuestionNotFound  = "Question not found"
	msgInvalidLogin      = "Invalid email or password"
	msgEmailTaken        = "An admin with this email already exists"
	msgInvalidQueryParam = "Invalid query parameters"
)

type contextKey string

const contextSessionKey contextKey = "session"

var errInvalidBody = errors.New("invalid request body")

// ErrorResponse is the error payload of every failed request.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func withSession(ctx context.Context, session types.Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, session)
}

func sessionFromContext(ctx context.Context) (*types.Session, bool) {
	session, ok := ctx.Value(contextSessionKey).(types.Session)
	if !ok || session.AdminID == "" {
		return nil, false
	}
	return &session, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, message string, verr *validation.Error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: verr.Fields})
}

// writeInternalError logs err with the request id and answers 500 without
// leaking it.
func writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), op,
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// writeServiceError maps service and store errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if verr, ok := validation.AsError(err); ok {
		writeValidationError(w, msgValidationFailed, verr)
		return
	}
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidLogin)
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, msgQuestionNotFound)
	default:
		writeInternalError(w, r, op, err)
	}
}

// decodeJSON reads a JSON body into dst. A value of the wrong JSON type is
// reported as a field error merged with the schema check of everything
// else that did decode, so the caller still sees every invalid field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return errInvalidBody
	}

	fields := []validation.FieldError{{
		Field:   typeErr.Field,
		Message: fmt.Sprintf("Expected %s, received %s", jsonTypeName(typeErr.Type), typeErr.Value),
	}}
	if verr, ok := validation.AsError(validation.Struct(reflect.ValueOf(dst).Elem().Interface())); ok {
		for _, f := range verr.Fields {
			if f.Field != typeErr.Field {
				fields = append(fields, f)
			}
		}
	}
	return validation.New(fields...)
}

// writeDecodeError answers a failed decodeJSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.AsError(err); ok {
		writeValidationError(w, msgValidationFailed, verr)
		return
	}
	writeError(w, http.StatusBadRequest, msgInvalidBody)
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		if t == reflect.TypeOf(types.NullableString{}) {
			return "string"
		}
		return "object"
	default:
		return t.Kind().String()
	}
}
