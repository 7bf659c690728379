package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

type healthResult struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Dialect  string `json:"dialect"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports the server version and whether the database answers.
func RegisterHealthTool(s *server.MCPServer, deps *ToolDeps) {
	tool := lookupTool("health", "Returns server health status, version and database connectivity")

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{
			Status:   "ok",
			Version:  deps.Version,
			Dialect:  deps.Schema.Dialect(),
			Database: "connected",
		}
		if err := deps.Schema.TestConnection(ctx); err != nil {
			deps.Logger.Warn("Health tool: database unreachable", zap.Error(err))
			result.Status = "degraded"
			result.Database = "unreachable"
			result.Error = err.Error()
		}
		return jsonResult(result)
	})
}
