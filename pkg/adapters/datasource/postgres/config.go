package postgres

import (
	"fmt"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	URL            string
	Database       string
	Schema         string
	MaxConnections int32
}

// DefaultSchema is used when none is configured.
func DefaultSchema() string {
	return "public"
}

// FromDatasourceConfig builds a Config from the application datasource section.
// Host rewriting for Docker and URL escaping happen in PostgresURL.
func FromDatasourceConfig(ds config.DatasourceConfig) (*Config, error) {
	if ds.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if ds.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	cfg := &Config{
		URL:            ds.PostgresURL(),
		Database:       ds.Database,
		Schema:         ds.Schema,
		MaxConnections: ds.MaxConnections,
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 5
	}
	return cfg, nil
}
