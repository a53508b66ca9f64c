package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// migrations holds the DDL for each schema version, indexed by version-1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind_sequence ON events(kind, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
	},
}

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
// Each pending version is applied in its own transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	for v := current + 1; v <= SchemaVersion; v++ {
		if err := applyMigration(ctx, db, v); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate v%d: begin transaction: %w", version, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range migrations[version-1] {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate v%d: %w", version, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("migrate v%d: record schema version: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate v%d: commit transaction: %w", version, err)
	}
	return nil
}
