package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

// askQuestionResult is the ask_question payload. Failed questions are
// still successful tool calls; state and failure say what happened.
type askQuestionResult struct {
	ID       string           `json:"id"`
	Answer   string           `json:"answer"`
	SQL      string           `json:"sql,omitempty"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	Warnings []string         `json:"warnings,omitempty"`
	State    string           `json:"state"`
	Failure  string           `json:"failure,omitempty"`
}

// RegisterQuestionTool adds the ask_question tool.
func RegisterQuestionTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription(
			"Answer a natural-language question about the connected database. "+
				"The question is translated to a single read-only SQL query, checked against the live schema, "+
				"executed with a row limit and summarized. Returns the answer, the SQL used and the result rows. "+
				"Example: ask_question(question='List top 5 customers by order total').",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question in plain language"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}
		question, err := services.NormalizeQuestion(raw)
		if err != nil {
			if errors.Is(err, services.ErrInvalidQuestion) {
				return NewErrorResultWithDetails("invalid_parameters", err.Error(),
					map[string]any{"max_length": services.MaxQuestionLength}), nil
			}
			return nil, err
		}

		answer := deps.Questions.Ask(ctx, question)
		deps.Logger.Debug("ask_question completed",
			zap.String("question_id", answer.ID.String()),
			zap.String("state", string(answer.State)))

		return jsonResult(toAskQuestionResult(answer))
	})
}

func toAskQuestionResult(a *models.Answer) askQuestionResult {
	return askQuestionResult{
		ID:       a.ID.String(),
		Answer:   a.Message,
		SQL:      a.SQL,
		Columns:  a.Results.Columns,
		Rows:     a.Results.Rows,
		RowCount: len(a.Results.Rows),
		Warnings: a.Warnings,
		State:    string(a.State),
		Failure:  a.Failure,
	}
}
