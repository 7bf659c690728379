package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/adapters/datasource"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/logging"
)

// Adapter provides read-only PostgreSQL access.
type Adapter struct {
	config *Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAdapter opens a pool for cfg. The pool connects lazily; call
// TestConnection to verify credentials.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		// the parse error can echo the password
		return nil, fmt.Errorf("parse postgres config: %s", logging.SanitizeError(err))
	}
	poolCfg.MaxConns = cfg.MaxConnections

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	a := newAdapterWithPool(pool, cfg)
	if logger != nil {
		a.logger = logger
	}
	a.logger.Debug("Opened postgres pool",
		zap.String("url", logging.SanitizeConnectionString(cfg.URL)),
		zap.String("schema", cfg.Schema))
	return a, nil
}

func newAdapterWithPool(pool *pgxpool.Pool, cfg *Config) *Adapter {
	return &Adapter{config: cfg, pool: pool, logger: zap.NewNop()}
}

// TestConnection checks the session landed in the configured database rather
// than a server default.
func (a *Adapter) TestConnection(ctx context.Context) error {
	var db string
	if err := a.pool.QueryRow(ctx, "SELECT current_database()").Scan(&db); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}
	if !strings.EqualFold(db, a.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q, got %q", a.config.Database, db)
	}
	return nil
}

// Dialect implements datasource.QueryExecutor.
func (a *Adapter) Dialect() string {
	return "PostgreSQL"
}

// QuoteIdentifier implements datasource.QueryExecutor.
func (a *Adapter) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// qualifiedTableName returns "schema"."table".
func (a *Adapter) qualifiedTableName(tableName string) string {
	return pgx.Identifier{a.config.Schema, tableName}.Sanitize()
}

var _ datasource.Adapter = (*Adapter)(nil)
