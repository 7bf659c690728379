package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

// Adapter provides read-only SQL Server access with SQL authentication.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

// NewAdapter opens a connection pool for cfg.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %s", logging.SanitizeError(err))
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	logger.Debug("Opened sqlserver pool",
		zap.String("url", logging.SanitizeConnectionString(cfg.URL)),
		zap.String("schema", cfg.Schema))

	return &Adapter{config: cfg, db: db, logger: logger}, nil
}

// newAdapterWithDB wraps an existing handle; used by tests.
func newAdapterWithDB(db *sql.DB, cfg *Config) *Adapter {
	return &Adapter{config: cfg, db: db, logger: zap.NewNop()}
}

// TestConnection verifies the database is reachable and is the configured one.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := a.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	if !strings.EqualFold(currentDB, a.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", a.config.Database, currentDB)
	}

	return nil
}

// Dialect implements datasource.QueryExecutor.
func (a *Adapter) Dialect() string {
	return "Microsoft SQL Server (T-SQL)"
}

// QuoteIdentifier implements datasource.QueryExecutor.
func (a *Adapter) QuoteIdentifier(name string) string {
	return quoteName(name)
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

var _ datasource.Adapter = (*Adapter)(nil)
