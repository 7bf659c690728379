package testhelpers

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// NewSQLiteShop creates a SQLite file in t.TempDir() loaded with the shop
// fixture and returns a datasource config pointing at it.
func NewSQLiteShop(t *testing.T) config.DatasourceConfig {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite fixture: %v", err)
	}
	defer db.Close()

	if err := ApplyFixtures(db, "sqlite", nil); err != nil {
		t.Fatalf("failed to load sqlite fixture: %v", err)
	}

	return config.DatasourceConfig{
		Type:           config.DatasourceSQLite,
		Path:           path,
		MaxConnections: 2,
	}
}
