package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	sqlutil "github.com/LankeSathwik7/sql-query-assistant/pkg/sql"
)

// Query runs sqlQuery bounded by limit. The file is opened read-only.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	queryToRun := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		sqlutil.StripTrailingSemicolon(sqlQuery), datasource.EffectiveLimit(limit))

	a.logger.Debug("Executing query", zap.String("sql", logging.SanitizeQuery(queryToRun)))
	return a.query(ctx, queryToRun)
}

// Preview returns the first rows of a table.
func (a *Adapter) Preview(ctx context.Context, tableName string, limit int) (*datasource.QueryExecutionResult, error) {
	query, args, err := sq.Select("*").
		From(a.QuoteIdentifier(tableName)).
		Limit(uint64(datasource.EffectiveLimit(limit))).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build preview query: %w", err)
	}
	return a.query(ctx, query, args...)
}

// query runs inside a transaction that is always rolled back.
func (a *Adapter) query(ctx context.Context, query string, args ...any) (*datasource.QueryExecutionResult, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			a.logger.Warn("Failed to roll back transaction", zap.Error(rbErr))
		}
	}()

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	result := &datasource.QueryExecutionResult{Rows: []map[string]any{}}
	if result.Columns, err = describeColumns(rows); err != nil {
		return nil, err
	}
	for rows.Next() {
		row := make(map[string]any, len(result.Columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(result.Rows)+1, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// describeColumns reports declared column types. Expressions have none and
// come back with an empty type.
func describeColumns(rows *sqlx.Rows) ([]datasource.ColumnInfo, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	columns := make([]datasource.ColumnInfo, len(types))
	for i, ct := range types {
		columns[i] = datasource.ColumnInfo{Name: ct.Name(), Type: strings.ToUpper(ct.DatabaseTypeName())}
	}
	return columns, nil
}
