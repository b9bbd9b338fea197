package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations applies all pending migrations from the embedded filesystem.
// Already up to date is not an error.
func RunMigrations(databaseURL string, log *slog.Logger) error {
	source, err := iofs.New(migrationFS, "migrations")

	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)

	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn("closing migration source", "err", srcErr)
		}
		if dbErr != nil {
			log.Warn("closing migration db handle", "err", dbErr)
		}
	}()

	err = m.Up()

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("database schema already up to date")
		return nil
	}

	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("database migrations applied")
	return nil
}
