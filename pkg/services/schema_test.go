package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

func TestSchemaService_Snapshot(t *testing.T) {
	svc := NewSchemaService(newShopAdapter(), zap.NewNop())

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"customers", "orders"}, snapshot.TableNames())
	assert.Equal(t, []string{"id", "name", "region"}, snapshot.Table("customers").ColumnNames())
	assert.True(t, snapshot.Table("customers").Columns[2].Nullable)
	assert.Equal(t, "numeric", snapshot.Table("orders").Columns[2].DeclaredType)
	assert.Equal(t, []models.ForeignKeyEdge{
		{FromTable: "orders", FromColumn: "cust_id", ToTable: "customers", ToColumn: "id"},
	}, snapshot.Edges)
}

func TestSchemaService_Snapshot_SkipsForeignKeysOutsideSnapshot(t *testing.T) {
	adapter := newShopAdapter()
	adapter.fks = append(adapter.fks, datasource.ForeignKeyMetadata{
		SourceTable: "orders", SourceColumn: "cust_id", TargetTable: "archived_customers", TargetColumn: "id",
	})

	snapshot, err := NewSchemaService(adapter, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Edges, 1)
}

func TestSchemaService_Snapshot_ForeignKeyFailureIsNotFatal(t *testing.T) {
	adapter := newShopAdapter()
	adapter.fks = nil
	adapter.fkErr = errors.New("permission denied for pg_constraint")

	snapshot, err := NewSchemaService(adapter, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Tables, 2)
	assert.Empty(t, snapshot.Edges)
}

func TestSchemaService_Snapshot_NoSchema(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeAdapter)
	}{
		{"unreachable", func(f *fakeAdapter) { f.tablesErr = errors.New("connection refused") }},
		{"zero tables", func(f *fakeAdapter) { f.tables = nil }},
		{"column discovery fails", func(f *fakeAdapter) { delete(f.columns, "orders") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newShopAdapter()
			tt.mutate(adapter)

			snapshot, err := NewSchemaService(adapter, zap.NewNop()).Snapshot(context.Background())
			require.Error(t, err)
			assert.Nil(t, snapshot)
			assert.ErrorIs(t, err, apperrors.ErrNoSchema)
			assert.Equal(t, apperrors.KindNoSchema, apperrors.KindOf(err))
		})
	}
}

func TestSchemaService_Describe(t *testing.T) {
	adapter := newShopAdapter()
	adapter.tables = append(adapter.tables, datasource.TableMetadata{TableName: "order_items"})
	adapter.columns["order_items"] = []datasource.ColumnMetadata{col("order_id", "integer", false)}

	desc, err := NewSchemaService(adapter, zap.NewNop()).Describe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "PostgreSQL", desc.Dialect)
	require.Len(t, desc.Tables, 3)
	assert.Equal(t, "customers", desc.Tables[0].Name)
	assert.Equal(t, "cu", desc.Tables[0].Alias)
	assert.Equal(t, "oi", desc.Tables[1].Alias)
	assert.Equal(t, "or", desc.Tables[2].Alias)
	assert.Len(t, desc.Relationships, 1)
}

func TestSchemaService_Stats(t *testing.T) {
	adapter := newShopAdapter()

	stats, err := NewSchemaService(adapter, zap.NewNop()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.DatabaseStats{Size: "8 MB", TableCount: 2, TotalRows: 7}, stats)
}

func TestSchemaService_Stats_SkipsUncountableTables(t *testing.T) {
	adapter := newShopAdapter()
	delete(adapter.counts, "orders")
	adapter.sizeErr = errors.New("function pg_database_size does not exist")

	stats, err := NewSchemaService(adapter, zap.NewNop()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unknown", stats.Size)
	assert.Equal(t, 2, stats.TableCount)
	assert.Equal(t, int64(3), stats.TotalRows)
}

func TestSchemaService_Preview(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default", 0, DefaultPreviewRows},
		{"explicit", 3, 3},
		{"capped", 5000, MaxPreviewRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newShopAdapter()
			rs, err := NewSchemaService(adapter, zap.NewNop()).Preview(context.Background(), "orders", tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, adapter.previewLimit)
			assert.Equal(t, []string{"name", "total"}, rs.Columns)
			assert.Len(t, rs.Rows, 2)
		})
	}
}

func TestSchemaService_Preview_UnknownTable(t *testing.T) {
	adapter := newShopAdapter()

	_, err := NewSchemaService(adapter, zap.NewNop()).Preview(context.Background(), "orders; DROP TABLE orders", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, adapter.previewLimit, "adapter must not be called for unknown tables")
}
