package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrator is what Migrate needs from a pool: plain queries plus transactions.
type Migrator interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate applies the embedded migrations that are not yet recorded.
func (db *DB) Migrate(ctx context.Context, log *slog.Logger) error {
	if db == nil || db.Pool == nil {
		return errors.New("database pool is not initialized")
	}
	return Migrate(ctx, db.Pool, migrationFiles, log)
}

// Migrate runs every *.up.sql file under migrations/ in name order. Each
// file and its schema_migrations row commit together, so a failed file
// is retried in full on the next start.
func Migrate(ctx context.Context, conn Migrator, files fs.FS, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	names, err := fs.Glob(files, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	if _, err := conn.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, name := range names {
		version := strings.TrimSuffix(path.Base(name), ".up.sql")

		var done bool
		err := conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&done)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if done {
			continue
		}

		body, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		if err := applyMigration(ctx, conn, version, string(body)); err != nil {
			return err
		}
		log.Info("migration applied", "version", version)
		applied++
	}

	log.Info("database schema up to date", "applied", applied, "known", len(names))
	return nil
}

func applyMigration(ctx context.Context, conn Migrator, version, body string) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}

	if _, err := tx.Exec(ctx, body); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
