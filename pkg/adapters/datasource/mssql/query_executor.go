package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
	sqlutil "github.com/LankeSathwik7/sql-query-assistant/pkg/sql"
)

// Query bounds sqlQuery with SET ROWCOUNT in the same batch and runs it.
// Wrapping it in a derived table would reject CTEs, ORDER BY without TOP and
// unnamed expression columns.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	bounded := boundRowCount(sqlutil.StripTrailingSemicolon(sqlQuery), datasource.EffectiveLimit(limit))

	a.logger.Debug("Executing query", zap.String("sql", logging.SanitizeQuery(bounded)))
	return a.queryInRollbackTx(ctx, bounded)
}

// boundRowCount caps the rows sqlQuery returns to n and resets the cap
// afterwards. The query starts on its own line so a leading WITH follows a
// statement terminator.
func boundRowCount(sqlQuery string, n int) string {
	return fmt.Sprintf("SET ROWCOUNT %d;\n%s\n;SET ROWCOUNT 0;", n, sqlQuery)
}

// Preview returns the first rows of a table.
func (a *Adapter) Preview(ctx context.Context, tableName string, limit int) (*datasource.QueryExecutionResult, error) {
	query, args, err := sq.Select("*").
		Options(fmt.Sprintf("TOP (%d)", datasource.EffectiveLimit(limit))).
		From(buildFullyQualifiedName(a.config.Schema, tableName)).
		PlaceholderFormat(sq.AtP).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build preview query: %w", err)
	}
	return a.queryInRollbackTx(ctx, query, args...)
}

// queryInRollbackTx runs the query in a transaction that is never committed.
// SQL Server has no READ ONLY transactions; statements are checked before
// they get here.
func (a *Adapter) queryInRollbackTx(ctx context.Context, query string, args ...any) (*datasource.QueryExecutionResult, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			a.logger.Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	result, err := readResult(rows)
	if err != nil {
		return nil, fmt.Errorf("read query results: %w", err)
	}
	return result, nil
}
