package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// ApplyMigrations applies pending *.sql files in lexical order and records each
// one in schema_migrations. An empty migrationsDir selects the embedded set.
func ApplyMigrations(ctx context.Context, db *DB, migrationsDir string) error {
	if strings.TrimSpace(migrationsDir) == "" {
		return ApplyEmbeddedMigrations(ctx, db)
	}
	return applyFS(ctx, db, os.DirFS(migrationsDir), ".")
}

// ApplyEmbeddedMigrations applies the migrations compiled into the binary.
func ApplyEmbeddedMigrations(ctx context.Context, db *DB) error {
	return applyFS(ctx, db, embeddedMigrations, "migrations")
}

// AppliedMigrations lists recorded migration names in apply order.
func AppliedMigrations(ctx context.Context, db *DB) ([]string, error) {
	var names []string
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT name FROM schema_migrations ORDER BY name`).Scan(ctx, &names)
	})
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return names, nil
}

func applyFS(ctx context.Context, db *DB, fsys fs.FS, root string) error {
	if db == nil || db.WriteSQL == nil {
		return fmt.Errorf("write db is not initialized")
	}
	if _, err := db.WriteSQL.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(ctx, db, name, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func applyOne(ctx context.Context, db *DB, name, body string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var seen int
		if err := tx.NewRaw(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(ctx, &seen); err != nil {
			return err
		}
		if seen > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, body); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, name)
		return err
	})
}
