package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
)

// QuestionHandler provides HTTP handlers for questions.
type QuestionHandler struct {
	questionService *services.QuestionService
}

// NewQuestionHandler constructs a handler with the provided service.
func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// QuestionRouter registers question routes on the given router. Every
// route requires a session, reads included.
func QuestionRouter(
	r chi.Router,
	questionService *services.QuestionService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewQuestionHandler(questionService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListQuestions)
	r.Post("/", handler.CreateQuestion)
	r.Route("/{questionID}", func(r chi.Router) {
		r.Get("/", handler.GetQuestion)
		r.Put("/", handler.UpdateQuestion)
		r.Delete("/", handler.DeleteQuestion)
	})
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query, err := validation.ListQuery(r.URL.Query())
	if err != nil {
		if verr, ok := validation.AsError(err); ok {
			writeValidationError(w, msgInvalidQueryParam, verr)
			return
		}
		writeInternalError(w, r, "parse question query", err)
		return
	}

	page, err := h.questionService.List(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, "list questions", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgQuestionNotFound)
		return
	}

	question, err := h.questionService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get question", err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req types.CreateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	question, err := h.questionService.Create(r.Context(), session, req)
	if err != nil {
		writeServiceError(w, r, "create question", err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgQuestionNotFound)
		return
	}

	var req types.UpdateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// A missing question wins over a bad body.
		if _, getErr := h.questionService.Get(r.Context(), id); errors.Is(getErr, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgQuestionNotFound)
			return
		}
		writeDecodeError(w, err)
		return
	}

	question, err := h.questionService.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, "update question", err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgQuestionNotFound)
		return
	}

	if err := h.questionService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete question", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// questionID returns the canonical form of the path id. Ids that are not
// UUIDs cannot name a stored question.
func questionID(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "questionID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
