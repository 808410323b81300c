package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cems/internal/config"
	"cems/internal/database"
	"cems/internal/logger"
)

func main() {
	var (
		command = flag.String("command", "", "Migration command: up, down, version")
		steps   = flag.Int("steps", 1, "Number of migration steps for down")
	)
	flag.Parse()

	if *command == "" {
		fmt.Println("Usage: go run ./cmd/migrate -command [up|down|version] [options]")
		fmt.Println("Commands:")
		fmt.Println("  up       - Apply all pending migrations")
		fmt.Println("  down     - Roll back migrations (-steps N, default 1)")
		fmt.Println("  version  - Show current migration version")
		os.Exit(1)
	}

	cfg := config.Load()
	logger.New(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch *command {
	case "up":
		if err := db.Migrate(); err != nil {
			slog.Error("Migration failed", "error", err)
			os.Exit(1)
		}
	case "down":
		if err := db.MigrateDown(*steps); err != nil {
			slog.Error("Rollback failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Rolled back migrations", "steps", *steps)
	case "version":
		version, dirty, err := db.MigrationVersion()
		if err != nil {
			slog.Error("Failed to read migration version", "error", err)
			os.Exit(1)
		}
		fmt.Printf("version: %d dirty: %t\n", version, dirty)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		os.Exit(1)
	}
}
