package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	_ "github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource/sqlite"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/llm"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/testhelpers"
)

func TestQuestionService_SQLiteShop(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	adapter, err := datasource.NewAdapter(ctx, testhelpers.NewSQLiteShop(t), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	client := llm.NewScriptedMockLLMClient(
		topCustomersSQL,
		"Alice leads with 200.50, followed by Bob with 200.00.",
	)
	schema := NewSchemaService(adapter, logger)
	svc := NewQuestionService(QuestionServiceDeps{
		Schema:    schema,
		Executor:  adapter,
		LLM:       client,
		LLMConfig: testLLMConfig(),
		Assistant: testAssistantConfig(),
		Metrics:   NewMetrics(prometheus.NewRegistry()),
		Logger:    logger,
	})

	answer := svc.Ask(ctx, "List top 5 customers by order total")

	require.Equal(t, models.StateDone, answer.State, "failure=%s message=%s sql=%s", answer.Failure, answer.Message, answer.SQL)
	assert.Empty(t, answer.Warnings)
	assert.Equal(t, []string{"name", "total"}, answer.Results.Columns)
	require.Len(t, answer.Results.Rows, 2)
	assert.Equal(t, "Alice", answer.Results.Rows[0]["name"])
	assert.InDelta(t, 200.5, answer.Results.Rows[0]["total"], 0.001)
	assert.Equal(t, "Bob", answer.Results.Rows[1]["name"])
	assert.Equal(t, "Alice leads with 200.50, followed by Bob with 200.00.", answer.Message)

	stats, err := schema.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TableCount, testhelpers.ShopTableCount)
	assert.GreaterOrEqual(t, stats.TotalRows, int64(testhelpers.ShopTotalRows))

	preview, err := schema.Preview(ctx, "customers", 2)
	require.NoError(t, err)
	assert.Len(t, preview.Rows, 2)

	desc, err := schema.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SQLite", desc.Dialect)
	assert.Contains(t, desc.Relationships, models.ForeignKeyEdge{FromTable: "orders", FromColumn: "cust_id", ToTable: "customers", ToColumn: "id"})
}
