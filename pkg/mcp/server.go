// Package mcp exposes the assistant over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp/tools"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "sql-query-assistant"

// Server wraps the mcp-go MCPServer with the assistant's tools registered.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server and registers every tool backed by deps.
func NewServer(deps *tools.ToolDeps, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(
			"Answer questions about a relational database. Call describe_schema to see what data exists, "+
				"then ask_question with a plain-language question. Generated SQL is read-only and row-limited.",
		),
	)

	if deps.Logger == nil {
		deps.Logger = logger
	}
	tools.RegisterAll(mcpServer, deps)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// ServeStdio runs the server over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}
