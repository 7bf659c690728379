package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	_ "github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource/sqlite"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/llm"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp/tools"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/prompts"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/services"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/testhelpers"
)

// newShopServer wires the real services over the SQLite shop fixture.
func newShopServer(t *testing.T, client llm.LLMClient, rateLimit int) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	adapter, err := datasource.NewAdapter(ctx, testhelpers.NewSQLiteShop(t), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	cfg := &config.Config{
		Env:     "test",
		Version: "test",
		Server:  config.ServerConfig{RateLimitPerMinute: rateLimit},
		LLM:     config.LLMConfig{SQLMaxTokens: 1024, AnswerMaxTokens: 512},
		Assistant: config.AssistantConfig{
			SampleRows:    5,
			MaxResultRows: 100,
		},
	}

	registry := prometheus.NewRegistry()
	schema := services.NewSchemaService(adapter, logger)
	questions := services.NewQuestionService(services.QuestionServiceDeps{
		Schema:    schema,
		Executor:  adapter,
		LLM:       client,
		LLMConfig: cfg.LLM,
		Assistant: cfg.Assistant,
		Metrics:   services.NewMetrics(registry),
		Logger:    logger,
	})
	mcpServer := mcp.NewServer(&tools.ToolDeps{
		Questions: questions,
		Schema:    schema,
		Version:   cfg.Version,
	}, logger)

	srv := httptest.NewServer(NewRouter(RouterDeps{
		Config:    cfg,
		Questions: questions,
		Schema:    schema,
		MCP:       mcpServer,
		Gatherer:  registry,
		Logger:    logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_AskQuestionEndToEnd(t *testing.T) {
	client := llm.NewScriptedMockLLMClient(
		"```sql\nSELECT c.name, SUM(o.amount) AS total FROM customers c JOIN orders o ON o.cust_id = c.id GROUP BY c.name ORDER BY total DESC LIMIT 5\n```",
		"Alice spent the most.",
	)
	srv := newShopServer(t, client, 0)

	resp, err := http.Post(srv.URL+"/api/questions", "application/json",
		strings.NewReader(`{"question":"List top 5 customers by order total"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer AnswerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.Equal(t, "done", answer.State, "message=%s sql=%s", answer.Message, answer.SQL)
	assert.Equal(t, "Alice spent the most.", answer.Message)
	require.Len(t, answer.Rows, 2)
	assert.Equal(t, "Alice", answer.Rows[0]["name"])

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sqlassistant_questions_total{failure="",state="done"} 1`)
}

func TestRouter_SchemaRoutes(t *testing.T) {
	srv := newShopServer(t, llm.NewMockLLMClient(), 0)

	resp, err := http.Get(srv.URL + "/api/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var desc services.SchemaDescription
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&desc))
	assert.Equal(t, "SQLite", desc.Dialect)

	resp, err = http.Get(srv.URL + "/api/schema/tables/customers/preview?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/schema/tables/nope/preview")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MCP(t *testing.T) {
	srv := newShopServer(t, llm.NewMockLLMClient(), 0)

	call := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"database_stats","arguments":{}}}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", bytes.NewBufferString(call))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "table_count")

	get, err := http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestRouter_RateLimitsQuestions(t *testing.T) {
	client := llm.NewScriptedMockLLMClient(prompts.EscapeSentinel)
	srv := newShopServer(t, client, 1)

	post := func() int {
		resp, err := http.Post(srv.URL+"/api/questions", "application/json", strings.NewReader(`{"question":"What is the weather?"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	resp, err := http.Get(srv.URL + "/api/schema/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "schema routes are not rate limited")
}
