package mssql

import (
	"fmt"
	"strings"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	URL            string
	Database       string
	Schema         string
	MaxConnections int
}

// DefaultSchema returns the default SQL Server schema.
func DefaultSchema() string {
	return "dbo"
}

// FromDatasourceConfig builds a Config from the application datasource section.
// The shared default schema "public" does not exist on SQL Server and maps to dbo.
func FromDatasourceConfig(ds config.DatasourceConfig) (*Config, error) {
	if ds.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if ds.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if ds.User == "" {
		return nil, fmt.Errorf("user is required for SQL authentication")
	}

	cfg := &Config{
		URL:            ds.SQLServerURL(),
		Database:       ds.Database,
		Schema:         ds.Schema,
		MaxConnections: int(ds.MaxConnections),
	}
	if cfg.Schema == "" || strings.EqualFold(cfg.Schema, "public") {
		cfg.Schema = DefaultSchema()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 5
	}
	return cfg, nil
}
