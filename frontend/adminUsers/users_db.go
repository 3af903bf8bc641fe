package adminusers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/bun"

	"seedflow/frontend/login"
	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/audit"
	"seedflow/infrastructure/sqlite"
	"seedflow/models"
)

var (
	ErrUsernameRequired = errors.New("username must have 3 to 64 characters and no spaces")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameExists   = errors.New("username already exists")
	ErrDeleteSelf       = errors.New("cannot delete the logged in user")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserHasHistory   = errors.New("user has command history")
)

const entityUser = "user"

var validate = validator.New()

func LoadUsers(ctx context.Context, db *sqlite.DB) ([]UserView, error) {
	users := make([]UserView, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw("SELECT id, username, role, auth_source, created_at FROM users ORDER BY username COLLATE NOCASE ASC").Scan(ctx, &users)
	})
	return users, err
}

func validateInput(in NewUserInput) error {
	if strings.ContainsAny(in.Username, " \t") {
		return ErrUsernameRequired
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Username":
		return ErrUsernameRequired
	case "Password":
		return ErrPasswordRequired
	default:
		return ErrInvalidRole
	}
}

// CreateUser adds a local account and records it in the audit log.
func CreateUser(ctx context.Context, db *sqlite.DB, hasher *argon.Hasher, auditSvc *audit.Service, actorID int64, in NewUserInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	if err := validateInput(in); err != nil {
		return err
	}
	if err := login.ValidatePasswordPolicy(in.Password); err != nil {
		return err
	}
	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("LOWER(username) = ?", strings.ToLower(in.Username)).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrUsernameExists
		}

		now := time.Now()
		user := &models.User{
			Username:     in.Username,
			PasswordHash: hash,
			Role:         in.Role,
			AuthSource:   login.SourceLocal,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return err
		}
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, actorID, "user.create", entityUser, user.Username, nil,
			map[string]string{"username": user.Username, "role": user.Role})
	})
}

// DeleteUser removes a user; their sessions go with it. Users that appear in
// the command log are kept so the history stays attributable.
func DeleteUser(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actorID, userID int64) (models.User, error) {
	if actorID == userID {
		return models.User{}, ErrDeleteSelf
	}
	var user models.User
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&user).Where("id = ?", userID).Limit(1).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		history, err := tx.NewSelect().Model((*models.AuditLog)(nil)).Where("user_id = ?", userID).Exists(ctx)
		if err != nil {
			return err
		}
		if history {
			return ErrUserHasHistory
		}
		if _, err := tx.NewDelete().Model((*models.Session)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.User)(nil)).Where("id = ?", userID).Exec(ctx); err != nil {
			return err
		}
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, actorID, "user.delete", entityUser, user.Username,
			map[string]string{"username": user.Username, "role": user.Role}, nil)
	})
	return user, err
}
