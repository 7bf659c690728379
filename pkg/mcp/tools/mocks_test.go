package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
)

type mockQuestionService struct {
	asked  []string
	answer *models.Answer
}

func (m *mockQuestionService) Ask(ctx context.Context, question string) *models.Answer {
	m.asked = append(m.asked, question)
	a := *m.answer
	a.Question = question
	return &a
}

type mockSchemaService struct {
	desc         *services.SchemaDescription
	stats        *models.DatabaseStats
	rows         *models.ResultSet
	err          error
	connErr      error
	previewLimit int
}

func (m *mockSchemaService) Snapshot(ctx context.Context) (*models.SchemaSnapshot, error) {
	return nil, errors.New("not used")
}

func (m *mockSchemaService) Describe(ctx context.Context) (*services.SchemaDescription, error) {
	return m.desc, m.err
}

func (m *mockSchemaService) Stats(ctx context.Context) (*models.DatabaseStats, error) {
	return m.stats, m.err
}

func (m *mockSchemaService) Preview(ctx context.Context, table string, limit int) (*models.ResultSet, error) {
	m.previewLimit = limit
	if table != "orders" {
		return nil, fmt.Errorf("table %q: %w", table, apperrors.ErrNotFound)
	}
	return m.rows, m.err
}

func (m *mockSchemaService) TestConnection(ctx context.Context) error { return m.connErr }

func (m *mockSchemaService) Dialect() string { return "PostgreSQL" }

func newTestDeps() (*ToolDeps, *mockQuestionService, *mockSchemaService) {
	questions := &mockQuestionService{answer: &models.Answer{
		ID:      uuid.New(),
		SQL:     `SELECT c."name" FROM customers c`,
		Results: models.ResultSet{Columns: []string{"name"}, Rows: []map[string]any{{"name": "Alice"}}},
		Message: "Alice is the only customer.",
		State:   models.StateDone,
	}}
	schema := &mockSchemaService{
		desc: &services.SchemaDescription{
			Dialect: "PostgreSQL",
			Tables:  []services.TableDescription{{Name: "customers", Alias: "cu"}},
		},
		stats: &models.DatabaseStats{Size: "8 MB", TableCount: 1, TotalRows: 3},
		rows:  &models.ResultSet{Columns: []string{"id"}, Rows: []map[string]any{{"id": 1}}},
	}
	return &ToolDeps{Questions: questions, Schema: schema, Version: "1.2.3", Logger: zap.NewNop()}, questions, schema
}

func newTestServer(deps *ToolDeps) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterAll(s, deps)
	return s
}

type toolCallResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call request and returns the parsed response.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolCallResponse {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	request := fmt.Sprintf(`{"jsonrpc":"2.0","method":"tools/call","params":%s,"id":1}`, params)

	result := s.HandleMessage(context.Background(), []byte(request))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response toolCallResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}
