// Package tools registers the assistant's MCP tools.
package tools

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// ToolDeps contains the services the tools call.
type ToolDeps struct {
	Questions services.QuestionService
	Schema    services.SchemaService
	Version   string
	Logger    *zap.Logger
}

// RegisterAll adds every assistant tool to s.
func RegisterAll(s *server.MCPServer, deps *ToolDeps) {
	RegisterHealthTool(s, deps)
	RegisterQuestionTool(s, deps)
	RegisterSchemaTools(s, deps)
}
