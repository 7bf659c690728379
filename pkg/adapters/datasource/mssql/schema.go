package mssql

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

const tablesQuery = `
SELECT t.TABLE_SCHEMA, t.TABLE_NAME,
       COALESCE((SELECT SUM(p.rows)
                 FROM sys.partitions p
                 WHERE p.object_id = OBJECT_ID(QUOTENAME(t.TABLE_SCHEMA) + N'.' + QUOTENAME(t.TABLE_NAME))
                   AND p.index_id IN (0, 1)), 0)
FROM INFORMATION_SCHEMA.TABLES t
WHERE t.TABLE_TYPE = 'BASE TABLE'
  AND t.TABLE_SCHEMA = @schema
ORDER BY t.TABLE_NAME`

// DiscoverTables lists base tables with their partition row estimates.
func (a *Adapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	rows, err := a.db.QueryContext(ctx, tablesQuery, sql.Named("schema", a.config.Schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables, err := scanRows(rows, func(r *sql.Rows) (datasource.TableMetadata, error) {
		var t datasource.TableMetadata
		err := r.Scan(&t.SchemaName, &t.TableName, &t.RowCount)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return tables, nil
}

const columnsQuery = `
SELECT c.COLUMN_NAME, c.DATA_TYPE,
       CASE c.IS_NULLABLE WHEN 'YES' THEN 1 ELSE 0 END,
       c.ORDINAL_POSITION,
       CASE WHEN pk.COLUMN_NAME IS NULL THEN 0 ELSE 1 END,
       c.COLUMN_DEFAULT
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
      ON ku.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND ku.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
) pk ON pk.TABLE_SCHEMA = c.TABLE_SCHEMA AND pk.TABLE_NAME = c.TABLE_NAME AND pk.COLUMN_NAME = c.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @schema AND c.TABLE_NAME = @table
ORDER BY c.ORDINAL_POSITION`

// DiscoverColumns lists a table's columns in ordinal order.
func (a *Adapter) DiscoverColumns(ctx context.Context, tableName string) ([]datasource.ColumnMetadata, error) {
	rows, err := a.db.QueryContext(ctx, columnsQuery,
		sql.Named("schema", a.config.Schema),
		sql.Named("table", tableName))
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", tableName, err)
	}

	columns, err := scanRows(rows, func(r *sql.Rows) (datasource.ColumnMetadata, error) {
		var (
			col             datasource.ColumnMetadata
			nullable, isKey int
			def             sql.NullString
		)
		if err := r.Scan(&col.ColumnName, &col.DataType, &nullable, &col.OrdinalPosition, &isKey, &def); err != nil {
			return col, err
		}
		col.DataType = mapSQLServerType(col.DataType)
		col.IsNullable = nullable == 1
		col.IsPrimaryKey = isKey == 1
		if def.Valid {
			col.DefaultValue = &def.String
		}
		return col, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", tableName, err)
	}
	return columns, nil
}

// One row per constrained column pair; both ends must live in @schema.
const foreignKeysQuery = `
SELECT fk.name,
       OBJECT_SCHEMA_NAME(fkc.parent_object_id), OBJECT_NAME(fkc.parent_object_id), pc.name,
       OBJECT_SCHEMA_NAME(fkc.referenced_object_id), OBJECT_NAME(fkc.referenced_object_id), rc.name
FROM sys.foreign_key_columns fkc
JOIN sys.foreign_keys fk ON fk.object_id = fkc.constraint_object_id
JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
WHERE OBJECT_SCHEMA_NAME(fkc.parent_object_id) = @schema
  AND OBJECT_SCHEMA_NAME(fkc.referenced_object_id) = @schema
ORDER BY 3, 1, fkc.constraint_column_id`

// DiscoverForeignKeys lists foreign key column pairs inside the schema.
func (a *Adapter) DiscoverForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	rows, err := a.db.QueryContext(ctx, foreignKeysQuery, sql.Named("schema", a.config.Schema))
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}

	fks, err := scanRows(rows, func(r *sql.Rows) (datasource.ForeignKeyMetadata, error) {
		var fk datasource.ForeignKeyMetadata
		err := r.Scan(&fk.ConstraintName,
			&fk.SourceSchema, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetSchema, &fk.TargetTable, &fk.TargetColumn)
		return fk, err
	})
	if err != nil {
		return nil, fmt.Errorf("read foreign keys: %w", err)
	}
	return fks, nil
}

// DatabaseSize sums the data and log files of the current database.
func (a *Adapter) DatabaseSize(ctx context.Context) (string, error) {
	var megabytes float64
	err := a.db.QueryRowContext(ctx,
		"SELECT CAST(SUM(CAST(size AS BIGINT)) * 8 / 1024.0 AS FLOAT) FROM sys.database_files").Scan(&megabytes)
	if err != nil {
		return "", fmt.Errorf("query database size: %w", err)
	}
	return fmt.Sprintf("%.2f MB", megabytes), nil
}

// CountRows returns an exact COUNT_BIG(*) for a table.
func (a *Adapter) CountRows(ctx context.Context, tableName string) (int64, error) {
	query, args, err := sq.Select("COUNT_BIG(*)").
		From(buildFullyQualifiedName(a.config.Schema, tableName)).
		PlaceholderFormat(sq.AtP).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", tableName, err)
	}
	return count, nil
}
