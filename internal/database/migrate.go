package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (db Database) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// Migrate applies all pending migrations.
func (db Database) Migrate() error {
	m, err := db.migrator()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("Database schema up to date")
			return nil
		}
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database migration completed")
	return nil
}

// MigrateDown rolls back the given number of migrations.
func (db Database) MigrateDown(steps int) error {
	m, err := db.migrator()
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to roll back database: %w", err)
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the last
// migration left the database dirty.
func (db Database) MigrationVersion() (uint, bool, error) {
	m, err := db.migrator()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
