package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// RegisterSchemaTools adds describe_schema, database_stats and preview_table.
func RegisterSchemaTools(s *server.MCPServer, deps *ToolDeps) {
	registerDescribeSchemaTool(s, deps)
	registerDatabaseStatsTool(s, deps)
	registerPreviewTableTool(s, deps)
}

func registerDescribeSchemaTool(s *server.MCPServer, deps *ToolDeps) {
	tool := lookupTool("describe_schema",
		"List the tables, columns (declared type, nullability, default) and foreign key relationships "+
			"of the connected database, with the alias each table is given in generated SQL.")

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		desc, err := deps.Schema.Describe(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoSchema) {
				return NewErrorResult(string(apperrors.KindNoSchema), apperrors.KindNoSchema.UserMessage()), nil
			}
			return nil, err
		}
		return jsonResult(desc)
	})
}

func registerDatabaseStatsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := lookupTool("database_stats",
		"Return the database storage size, number of tables and total row count.")

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Schema.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(stats)
	})
}

func registerPreviewTableTool(s *server.MCPServer, deps *ToolDeps) {
	tool := lookupTool("preview_table",
		"Return the first rows of a table. Example: preview_table(table='orders', limit=5).",
		mcp.WithString("table", mcp.Required(),
			mcp.Description("Table name exactly as listed by describe_schema")),
		mcp.WithNumber("limit",
			mcp.Description("Rows to return (default 10, max 100)")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}
		if table = strings.TrimSpace(table); table == "" {
			return NewErrorResult("invalid_parameters", "parameter 'table' cannot be empty"), nil
		}

		rows, err := deps.Schema.Preview(ctx, table, req.GetInt("limit", services.DefaultPreviewRows))
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return NewErrorResultWithDetails("TABLE_NOT_FOUND", err.Error(), map[string]any{"table": table}), nil
		case errors.Is(err, apperrors.ErrExecution):
			return NewErrorResult(string(apperrors.KindExecution), err.Error()), nil
		case err != nil:
			return nil, err
		}
		return jsonResult(rows)
	})
}
