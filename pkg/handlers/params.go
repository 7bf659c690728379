package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseLimit reads the optional "limit" query parameter.
// Returns def when absent, or false after writing a 400 when malformed.
func ParseLimit(w http.ResponseWriter, r *http.Request, def int, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return limit, true
}

// ParseTableName extracts the table name path parameter.
// Expects path parameter: name
func ParseTableName(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	name := r.PathValue("name")
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_table", "table name is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return name, true
}
