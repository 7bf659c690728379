package sqlite

import (
	"fmt"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// Config contains SQLite connection options.
type Config struct {
	Path           string
	MaxConnections int
}

// FromDatasourceConfig builds a Config from the application datasource section.
func FromDatasourceConfig(ds config.DatasourceConfig) (*Config, error) {
	if ds.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg := &Config{Path: ds.Path, MaxConnections: int(ds.MaxConnections)}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1
	}
	return cfg, nil
}

// dsn opens the file read-only so generated SQL can never write to it.
func (c *Config) dsn() string {
	return "file:" + c.Path + "?mode=ro&_pragma=foreign_keys(1)"
}
