package handlers

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/audit"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// AskQuestionRequest is the body of POST /api/questions.
type AskQuestionRequest struct {
	Question string `json:"question"`
}

// AnswerResponse is the uniform answer payload. Pipeline failures are
// reported with state "failed" and a 200 status.
type AnswerResponse struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	SQL       string           `json:"sql"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Message   string           `json:"message"`
	Warnings  []string         `json:"warnings"`
	State     string           `json:"state"`
	Failure   string           `json:"failure,omitempty"`
	ElapsedMs int64            `json:"elapsed_ms"`
}

// QuestionsHandler serves the question endpoint.
type QuestionsHandler struct {
	questions services.QuestionService
	logger    *zap.Logger
}

// NewQuestionsHandler creates a QuestionsHandler.
func NewQuestionsHandler(questions services.QuestionService, logger *zap.Logger) *QuestionsHandler {
	return &QuestionsHandler{questions: questions, logger: logger}
}

// RegisterRoutes registers the question route. limit wraps the handler with
// request rate limiting.
func (h *QuestionsHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/questions", limit(http.HandlerFunc(h.Ask)))
}

// Ask handles POST /api/questions.
func (h *QuestionsHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskQuestionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	question, err := services.NormalizeQuestion(req.Question)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_question", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	ctx := audit.WithClientIP(r.Context(), ClientIP(r))
	answer := h.questions.Ask(ctx, question)

	if err := WriteJSON(w, http.StatusOK, toAnswerResponse(answer)); err != nil {
		h.logger.Error("Failed to encode answer", zap.Error(err))
	}
}

func toAnswerResponse(a *models.Answer) AnswerResponse {
	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return AnswerResponse{
		ID:        a.ID.String(),
		Question:  a.Question,
		SQL:       a.SQL,
		Columns:   a.Results.Columns,
		Rows:      a.Results.Rows,
		Message:   a.Message,
		Warnings:  warnings,
		State:     string(a.State),
		Failure:   a.Failure,
		ElapsedMs: a.Elapsed.Milliseconds(),
	}
}

// ClientIP returns the caller's address without the port. chi's RealIP
// middleware has already applied forwarding headers to RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
