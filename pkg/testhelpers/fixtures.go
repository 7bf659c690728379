// Package testhelpers provides databases loaded with the shop fixture for
// adapter and end-to-end tests.
package testhelpers

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed fixtures/migrations/*.sql
var fixtureMigrations embed.FS

// Shop fixture facts that tests assert against.
const (
	ShopTableCount    = 3
	ShopCustomerCount = 3
	ShopOrderCount    = 3
	ShopTotalRows     = 9
)

// ApplyFixtures migrates db up to the shop fixture. dialect is "postgres" or
// "sqlite". It is idempotent.
func ApplyFixtures(db *sql.DB, dialect string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case "sqlite":
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("no fixture driver for %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(fixtureMigrations, "fixtures/migrations")
	if err != nil {
		return fmt.Errorf("failed to open fixture migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No fixtures to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Applied fixtures", zap.Uint("version", version))
	return nil
}
