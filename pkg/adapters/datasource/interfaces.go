// Package datasource defines the read-only database access the assistant
// needs and a registry of per-dialect adapters.
package datasource

import "context"

// ConnectionTester owns a connection pool; Close releases it.
type ConnectionTester interface {
	// TestConnection round-trips to the server with the configured credentials.
	TestConnection(ctx context.Context) error
	Close() error
}

// SchemaDiscoverer reads table, column and foreign key metadata for the
// configured schema.
type SchemaDiscoverer interface {
	// DiscoverTables lists user tables by name, views excluded.
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns lists a table's columns by ordinal position.
	DiscoverColumns(ctx context.Context, tableName string) ([]ColumnMetadata, error)

	// DiscoverForeignKeys returns single-column foreign key edges between
	// tables of the configured schema.
	DiscoverForeignKeys(ctx context.Context) ([]ForeignKeyMetadata, error)

	// DatabaseSize is formatted for people, e.g. "8.2 MB".
	DatabaseSize(ctx context.Context) (string, error)

	// CountRows is exact, not an estimate.
	CountRows(ctx context.Context, tableName string) (int64, error)

	Close() error
}

// MaxQueryLimit caps the rows any Query or Preview returns.
const MaxQueryLimit = 1000

// QueryExecutor runs read-only SQL.
type QueryExecutor interface {
	// Query bounds sqlQuery to EffectiveLimit(limit) rows (a LIMIT subquery,
	// or SET ROWCOUNT on SQL Server) and runs it without write access.
	// The caller has already validated it as a single SELECT.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// Preview selects the first rows of tableName, which must be known.
	Preview(ctx context.Context, tableName string, limit int) (*QueryExecutionResult, error)

	// QuoteIdentifier quotes a table, column or schema name in the dialect's
	// style, escaping embedded quote characters.
	QuoteIdentifier(name string) string

	// Dialect names the SQL dialect for prompts, e.g. "PostgreSQL".
	Dialect() string

	Close() error
}

// Adapter is everything the assistant needs from one database.
type Adapter interface {
	ConnectionTester
	SchemaDiscoverer
	QueryExecutor
}

// ColumnInfo names a result column and its upper-cased database type.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryExecutionResult is a bounded result set. Rows are keyed by column name.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// ColumnNames returns the result column names in order.
func (r *QueryExecutionResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// EffectiveLimit clamps limit to (0, MaxQueryLimit].
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
