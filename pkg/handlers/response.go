package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 64 << 10

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeServiceError maps a service error to a status code and error body.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		status  int
		code    string
		message string
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, apperrors.ErrNoSchema):
		status, code, message = http.StatusServiceUnavailable, string(apperrors.KindNoSchema), apperrors.KindNoSchema.UserMessage()
	case errors.Is(err, apperrors.ErrExecution):
		status, code, message = http.StatusBadGateway, string(apperrors.KindExecution), apperrors.KindExecution.UserMessage()
	default:
		status, code, message = http.StatusInternalServerError, "internal_error", "An unexpected error occurred."
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.String("error", logging.SanitizeError(err)))
	}
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
