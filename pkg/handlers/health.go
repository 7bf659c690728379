package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

const (
	serviceName        = "sql-query-assistant"
	healthCheckTimeout = 5 * time.Second
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Dialect  string `json:"dialect"`
	Error    string `json:"error,omitempty"`
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	cfg    *config.Config
	schema services.SchemaService
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, schema services.SchemaService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, schema: schema, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health round-trips to the database and answers 503 if it does not respond
// within healthCheckTimeout.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, body := http.StatusOK, HealthResponse{Status: "ok", Database: "connected", Dialect: h.schema.Dialect()}
	if err := h.schema.TestConnection(ctx); err != nil {
		reason := logging.SanitizeError(err)
		h.logger.Warn("Health check failed", zap.String("error", reason))
		status = http.StatusServiceUnavailable
		body.Status, body.Database, body.Error = "unavailable", "unreachable", reason
	}
	h.respond(w, status, body)
}

// Ping answers without touching the database.
func (h *HealthHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		h.logger.Warn("Hostname lookup failed", zap.Error(err))
		hostname = "unknown"
	}

	h.respond(w, http.StatusOK, PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     serviceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	})
}

func (h *HealthHandler) respond(w http.ResponseWriter, status int, body any) {
	if err := WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
