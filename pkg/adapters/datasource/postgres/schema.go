package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

// reltuples is -1 for tables that were never analyzed.
const tablesQuery = `
SELECT t.table_schema, t.table_name, GREATEST(COALESCE(cls.reltuples, 0), 0)::bigint
FROM information_schema.tables t
LEFT JOIN pg_namespace ns ON ns.nspname = t.table_schema
LEFT JOIN pg_class cls ON cls.relnamespace = ns.oid AND cls.relname = t.table_name
WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
ORDER BY t.table_name`

// Primary keys come from pg_index so unique indexes promoted by ORMs count too.
const columnsQuery = `
WITH pk AS (
    SELECT att.attname
    FROM pg_index ix
    JOIN pg_class tbl ON tbl.oid = ix.indrelid
    JOIN pg_namespace ns ON ns.oid = tbl.relnamespace
    JOIN pg_attribute att ON att.attrelid = tbl.oid AND att.attnum = ANY(ix.indkey)
    WHERE ix.indisprimary AND ns.nspname = $1 AND tbl.relname = $2
)
SELECT col.column_name,
       col.data_type,
       col.is_nullable = 'YES',
       col.column_name IN (SELECT attname FROM pk),
       col.ordinal_position::int,
       col.column_default
FROM information_schema.columns col
WHERE col.table_schema = $1 AND col.table_name = $2
ORDER BY col.ordinal_position`

// Composite keys are unnested into one row per column pair, matched by position.
const foreignKeysQuery = `
SELECT con.conname,
       src_ns.nspname, src.relname, src_att.attname,
       dst_ns.nspname, dst.relname, dst_att.attname
FROM pg_constraint con
JOIN pg_class src ON src.oid = con.conrelid
JOIN pg_namespace src_ns ON src_ns.oid = src.relnamespace
JOIN pg_class dst ON dst.oid = con.confrelid
JOIN pg_namespace dst_ns ON dst_ns.oid = dst.relnamespace
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) AS pair(src_num, dst_num)
JOIN pg_attribute src_att ON src_att.attrelid = con.conrelid AND src_att.attnum = pair.src_num
JOIN pg_attribute dst_att ON dst_att.attrelid = con.confrelid AND dst_att.attnum = pair.dst_num
WHERE con.contype = 'f' AND src_ns.nspname = $1 AND dst_ns.nspname = $1
ORDER BY src.relname, con.conname, src_att.attname`

// collect runs query and scans every row positionally into T.
func collect[T any](ctx context.Context, a *Adapter, what, query string, args ...any) ([]T, error) {
	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return items, nil
}

// DiscoverTables lists base tables with planner row estimates.
func (a *Adapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	return collect[datasource.TableMetadata](ctx, a, "tables", tablesQuery, a.config.Schema)
}

// DiscoverColumns lists a table's columns in ordinal order.
func (a *Adapter) DiscoverColumns(ctx context.Context, tableName string) ([]datasource.ColumnMetadata, error) {
	return collect[datasource.ColumnMetadata](ctx, a, "columns of "+tableName, columnsQuery, a.config.Schema, tableName)
}

// DiscoverForeignKeys lists foreign key column pairs inside the schema.
func (a *Adapter) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	return collect[datasource.ForeignKeyMetadata](ctx, a, "foreign keys", foreignKeysQuery, a.config.Schema)
}

// DatabaseSize returns pg_size_pretty of the current database.
func (a *Adapter) DatabaseSize(ctx context.Context) (string, error) {
	var size string
	if err := a.pool.QueryRow(ctx, "SELECT pg_size_pretty(pg_database_size(current_database()))").Scan(&size); err != nil {
		return "", fmt.Errorf("query database size: %w", err)
	}
	return size, nil
}

// CountRows returns an exact COUNT(*) for a table.
func (a *Adapter) CountRows(ctx context.Context, tableName string) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(a.qualifiedTableName(tableName)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := a.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", tableName, err)
	}
	return count, nil
}
