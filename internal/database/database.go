package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"cems/internal/config"
)

type Database struct {
	*sql.DB
}

// New opens a Postgres connection pool and verifies it with a ping.
func New(cfg config.DatabaseConfig) (Database, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return Database{}, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return Database{}, fmt.Errorf("failed to close database: %w", closeErr)
		}
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to database", "host", cfg.Host, "name", cfg.Name)
	return Database{DB: db}, nil
}

func (db Database) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}
