package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// SchemaHandler serves schema description, statistics and table previews.
type SchemaHandler struct {
	schema services.SchemaService
	logger *zap.Logger
}

// NewSchemaHandler creates a SchemaHandler.
func NewSchemaHandler(schema services.SchemaService, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{schema: schema, logger: logger}
}

// RegisterRoutes registers the schema routes.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema", h.Describe)
	mux.HandleFunc("GET /api/schema/stats", h.Stats)
	mux.HandleFunc("GET /api/schema/tables/{name}/preview", h.Preview)
}

// Describe handles GET /api/schema.
func (h *SchemaHandler) Describe(w http.ResponseWriter, r *http.Request) {
	desc, err := h.schema.Describe(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if err := WriteJSON(w, http.StatusOK, desc); err != nil {
		h.logger.Error("Failed to encode schema", zap.Error(err))
	}
}

// Stats handles GET /api/schema/stats.
func (h *SchemaHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.schema.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to encode stats", zap.Error(err))
	}
}

// Preview handles GET /api/schema/tables/{name}/preview?limit=N.
func (h *SchemaHandler) Preview(w http.ResponseWriter, r *http.Request) {
	table, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := ParseLimit(w, r, services.DefaultPreviewRows, h.logger)
	if !ok {
		return
	}

	rows, err := h.schema.Preview(r.Context(), table, limit)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if err := WriteJSON(w, http.StatusOK, rows); err != nil {
		h.logger.Error("Failed to encode preview", zap.Error(err))
	}
}
