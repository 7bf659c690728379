package services

import (
	"context"
	"errors"
	"sync"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

// fakeAdapter is an in-memory datasource.Adapter.
type fakeAdapter struct {
	mu sync.Mutex

	tables    []datasource.TableMetadata
	columns   map[string][]datasource.ColumnMetadata
	fks       []datasource.ForeignKeyMetadata
	counts    map[string]int64
	size      string
	result    *datasource.QueryExecutionResult
	tablesErr error
	fkErr     error
	sizeErr   error
	queryErr  error

	queries      []string
	queryLimits  []int
	previewLimit int
}

func col(name, typ string, nullable bool) datasource.ColumnMetadata {
	return datasource.ColumnMetadata{ColumnName: name, DataType: typ, IsNullable: nullable}
}

// newShopAdapter models customers(id, name, region) and orders(id, cust_id, amount)
// with orders.cust_id -> customers.id.
func newShopAdapter() *fakeAdapter {
	return &fakeAdapter{
		tables: []datasource.TableMetadata{
			{SchemaName: "public", TableName: "customers"},
			{SchemaName: "public", TableName: "orders"},
		},
		columns: map[string][]datasource.ColumnMetadata{
			"customers": {col("id", "integer", false), col("name", "text", false), col("region", "text", true)},
			"orders":    {col("id", "integer", false), col("cust_id", "integer", false), col("amount", "numeric", true)},
		},
		fks: []datasource.ForeignKeyMetadata{
			{ConstraintName: "orders_cust_id_fkey", SourceTable: "orders", SourceColumn: "cust_id", TargetTable: "customers", TargetColumn: "id"},
		},
		counts: map[string]int64{"customers": 3, "orders": 4},
		size:   "8 MB",
		result: &datasource.QueryExecutionResult{
			Columns:  []datasource.ColumnInfo{{Name: "name"}, {Name: "total"}},
			Rows:     []map[string]any{{"name": "Alice", "total": 200.5}, {"name": "Bob", "total": 200.0}},
			RowCount: 2,
		},
	}
}

func (f *fakeAdapter) TestConnection(ctx context.Context) error { return f.tablesErr }

func (f *fakeAdapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	return f.tables, f.tablesErr
}

func (f *fakeAdapter) DiscoverColumns(ctx context.Context, tableName string) ([]datasource.ColumnMetadata, error) {
	cols, ok := f.columns[tableName]
	if !ok {
		return nil, errors.New("no such table")
	}
	return cols, nil
}

func (f *fakeAdapter) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	return f.fks, f.fkErr
}

func (f *fakeAdapter) DatabaseSize(ctx context.Context) (string, error) { return f.size, f.sizeErr }

func (f *fakeAdapter) CountRows(ctx context.Context, tableName string) (int64, error) {
	n, ok := f.counts[tableName]
	if !ok {
		return 0, errors.New("permission denied")
	}
	return n, nil
}

func (f *fakeAdapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sqlQuery)
	f.queryLimits = append(f.queryLimits, limit)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.result, nil
}

func (f *fakeAdapter) Preview(ctx context.Context, tableName string, limit int) (*datasource.QueryExecutionResult, error) {
	f.previewLimit = limit
	return f.result, nil
}

func (f *fakeAdapter) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (f *fakeAdapter) Dialect() string { return "PostgreSQL" }

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

var _ datasource.Adapter = (*fakeAdapter)(nil)
