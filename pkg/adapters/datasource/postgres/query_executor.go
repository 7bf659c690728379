package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	sqlutil "github.com/LankeSathwik7/sql-query-assistant/pkg/sql"
)

// Query runs sqlQuery inside a read-only transaction, bounded by limit.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	bounded := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		sqlutil.StripTrailingSemicolon(sqlQuery), datasource.EffectiveLimit(limit))

	a.logger.Debug("Executing query", zap.String("sql", logging.SanitizeQuery(bounded)))
	return a.queryReadOnly(ctx, bounded)
}

// Preview returns the first rows of a table.
func (a *Adapter) Preview(ctx context.Context, tableName string, limit int) (*datasource.QueryExecutionResult, error) {
	query, args, err := sq.Select("*").
		From(a.qualifiedTableName(tableName)).
		Limit(uint64(datasource.EffectiveLimit(limit))).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build preview query: %w", err)
	}
	return a.queryReadOnly(ctx, query, args...)
}

// queryReadOnly runs the query in a READ ONLY transaction and rolls it back.
func (a *Adapter) queryReadOnly(ctx context.Context, query string, args ...any) (*datasource.QueryExecutionResult, error) {
	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			a.logger.Warn("Failed to roll back read-only transaction", zap.Error(err))
		}
	}()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	columns := describeFields(rows)
	resultRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (map[string]any, error) {
		values, err := row.Values()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(columns))
		for i, col := range columns {
			out[col.Name] = normalizeValue(values[i])
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if resultRows == nil {
		resultRows = []map[string]any{}
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// describeFields names result columns and their types.
func describeFields(rows pgx.Rows) []datasource.ColumnInfo {
	typeMap := rows.Conn().TypeMap()
	fields := rows.FieldDescriptions()
	columns := make([]datasource.ColumnInfo, len(fields))
	for i, fd := range fields {
		columns[i] = datasource.ColumnInfo{Name: fd.Name, Type: typeName(typeMap, fd.DataTypeOID)}
	}
	return columns
}

// typeName looks oid up in the connection's type map. Unregistered OIDs
// render as OID:<n>.
func typeName(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return strings.ToUpper(t.Name)
	}
	return fmt.Sprintf("OID:%d", oid)
}

// normalizeValue turns UUID arrays and raw bytes into strings so results
// render and marshal as text.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	}
	return v
}
