// Package sqlite implements the datasource adapter for SQLite files using
// the pure-Go modernc driver.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
)

// Adapter provides read-only SQLite access.
type Adapter struct {
	config *Config
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAdapter opens the database file. A missing file is an error rather
// than a silently created empty database.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("sqlite database %s: %w", cfg.Path, err)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("sqlite connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	logger.Debug("Opened sqlite database", zap.String("path", cfg.Path))

	return &Adapter{config: cfg, db: db, logger: logger}, nil
}

// TestConnection verifies the file is a readable SQLite database.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var n int
	if err := a.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master"); err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	return nil
}

// Dialect implements datasource.QueryExecutor.
func (a *Adapter) Dialect() string {
	return "SQLite"
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (a *Adapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close closes the database handle.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

var _ datasource.Adapter = (*Adapter)(nil)
