// Command migrate manages the engineered_transactions schema with goose.
// It is only needed for Postgres-backed deployments; the CSV FileStore
// used by default has no schema to migrate.
//
// Usage:
//
//	go run ./cmd/migrate up          # Create/upgrade the dataset schema
//	go run ./cmd/migrate status      # Show applied migrations
//	go run ./cmd/migrate down        # Roll back the last migration
//	go run ./cmd/migrate version     # Show current schema version
//
// DATABASE_URL must point at the PostgreSQL instance backing the dataset
// store, the same value cmd/server and cmd/derive read.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <command> [args]")
		fmt.Fprintln(os.Stderr, "commands: up, down, status, version, redo, up-to <v>, down-to <v>")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is not set; migrations only apply to Postgres-backed dataset storage")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}
