package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"seedflow/frontend/login"
	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/rbac"
	"seedflow/infrastructure/sqlite"
)

func main() {
	logger := zap.Must(zap.NewDevelopment())
	defer func() { _ = logger.Sync() }()

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		logger.Fatal("resolve migrations dir", zap.Error(err))
	}

	defaultDBPath := filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(migrationsDir))), "seedflow.db")
	dbPath := getenv("SQLITE_PATH", defaultDBPath)

	username := getenv("OPERATOR_USERNAME", "admin")
	role := getenv("OPERATOR_ROLE", rbac.RoleAdmin)
	password := os.Getenv("OPERATOR_PASSWORD")
	if err := seed(context.Background(), dbPath, migrationsDir, username, role, password); err != nil {
		logger.Fatal("seed operator", zap.Error(err))
	}

	logger.Info("seeded local user", zap.String("username", username), zap.String("role", role))
}

// seed creates or updates one local account.
func seed(ctx context.Context, dbPath, migrationsDir, username, role, password string) error {
	if !rbac.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	if password == "" {
		return fmt.Errorf("OPERATOR_PASSWORD is required")
	}

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return login.UpsertLocalUser(ctx, db, argon.NewHasher(), username, role, password)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
