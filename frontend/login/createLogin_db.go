package login

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/sqlite"
	"seedflow/models"
)

// User sources.
const (
	SourceLocal  = "local"
	SourceBridge = "bridge"
)

func findUserByUsername(ctx context.Context, tx bun.Tx, username string) (models.User, error) {
	var user models.User
	err := tx.NewSelect().
		Model(&user).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// LoadUserByUsername reads a user row, case-insensitively.
func LoadUserByUsername(ctx context.Context, db *sqlite.DB, username string) (models.User, error) {
	var user models.User
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = findUserByUsername(ctx, tx, username)
		return err
	})
	return user, err
}

// upsertBridgeUser makes sure a bridge-authenticated operator has a user row
// so sessions and the command log can reference it. Existing rows keep their
// role and password.
func upsertBridgeUser(ctx context.Context, db *sqlite.DB, username, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	now := time.Now()
	var user models.User
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, auth_source, created_at, updated_at)
VALUES (?, '', ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  updated_at = excluded.updated_at`, username, role, SourceBridge, now, now); err != nil {
			return err
		}
		var err error
		user, err = findUserByUsername(ctx, tx, username)
		return err
	})
	return user, err
}

func updatePasswordHash(ctx context.Context, db *sqlite.DB, userID int64, hash string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("password_hash = ?", hash).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		return err
	})
}

func persistSession(ctx context.Context, db *sqlite.DB, session models.Session) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.Session{
			ID:        session.ID,
			UserID:    session.UserID,
			ExpiresAt: session.ExpiresAt,
		}).Exec(ctx)
		return err
	})
}

func DeleteSessionByToken(ctx context.Context, db *sqlite.DB, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id = ?", token).Exec(ctx)
		return err
	})
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// their tokens so per-session state can be released too.
func DeleteExpiredSessions(ctx context.Context, db *sqlite.DB, now time.Time) ([]string, error) {
	var tokens []string
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model((*models.Session)(nil)).
			Column("id").
			Where("expires_at < ?", now).
			Scan(ctx, &tokens); err != nil {
			return err
		}
		if len(tokens) == 0 {
			return nil
		}
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id IN (?)", bun.In(tokens)).Exec(ctx)
		return err
	})
	return tokens, err
}

func LoadSessionByToken(ctx context.Context, db *sqlite.DB, token string) (models.Session, error) {
	var session models.Session
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&session).
			Relation("User").
			Where("s.id = ?", token).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}
		session.UserRoles = []string{session.User.Role}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	if session.Expired() {
		_ = DeleteSessionByToken(ctx, db, token)
		return models.Session{}, sql.ErrNoRows
	}
	return session, nil
}

// UpsertLocalUser creates or resets a local user with an argon2id password.
func UpsertLocalUser(ctx context.Context, db *sqlite.DB, hasher *argon.Hasher, username, role, rawPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if err := ValidatePasswordPolicy(rawPassword); err != nil {
		return err
	}
	hash, err := hasher.Hash(rawPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, auth_source, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash = excluded.password_hash,
  role = excluded.role,
  auth_source = excluded.auth_source,
  updated_at = excluded.updated_at`, username, hash, role, SourceLocal, now, now)
		return err
	})
}
