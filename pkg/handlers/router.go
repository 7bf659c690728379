// Package handlers implements the HTTP API.
package handlers

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/middleware"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// RouterDeps are the collaborators of the HTTP API.
type RouterDeps struct {
	Config    *config.Config
	Questions services.QuestionService
	Schema    services.SchemaService
	// MCP is optional; nil leaves /mcp unregistered.
	MCP *mcp.Server
	// Gatherer backs /metrics; nil leaves it unregistered.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter builds the HTTP handler with every route and the global middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	limit := middleware.RateLimit(deps.Config.Server.RateLimitPerMinute)

	NewHealthHandler(deps.Config, deps.Schema, deps.Logger).RegisterRoutes(mux)
	NewQuestionsHandler(deps.Questions, deps.Logger).RegisterRoutes(mux, limit)
	NewSchemaHandler(deps.Schema, deps.Logger).RegisterRoutes(mux)

	if deps.Gatherer != nil {
		RegisterMetricsRoute(mux, deps.Gatherer)
	}
	if deps.MCP != nil {
		NewMCPHandler(deps.MCP, deps.Logger.Named("mcp")).RegisterRoutes(mux, limit)
	}

	var handler http.Handler = mux
	handler = middleware.CORS(deps.Config.Server.AllowedOrigins())(handler)
	handler = middleware.RequestLogger(deps.Logger.Named("http"))(handler)
	handler = chimw.Recoverer(handler)
	handler = chimw.RealIP(handler)
	handler = chimw.RequestID(handler)
	return handler
}
