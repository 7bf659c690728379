package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/audit"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
	}
}

// RegisterRoutes registers the MCP endpoint at /mcp.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	// Method check runs first, then rate limiting, then JSON-RPC logging.
	loggedHandler := middleware.MCPRequestLogger(h.logger)(withClientIP(h.httpServer))
	mux.Handle("/mcp", h.requirePOST(limit(loggedHandler)))
}

// withClientIP carries the caller's address into tool calls for audit events.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClientIP(r.Context(), ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// The server is stateless, so there is no GET event stream to serve.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
