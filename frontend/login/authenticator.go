package login

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"seedflow/infrastructure/argon"
	"seedflow/infrastructure/cache"
	"seedflow/infrastructure/rbac"
	"seedflow/infrastructure/sqlite"
	"seedflow/models"
)

var (
	ErrInvalidInput       = errors.New("username and password must have at least 3 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Authenticator checks a username and password and returns the user row the
// session will belong to.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

type credentials struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=3"`
}

var validate = validator.New()

// ValidateCredentials applies the login form rules.
func ValidateCredentials(username, password string) error {
	if err := validate.Struct(credentials{Username: strings.TrimSpace(username), Password: password}); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// CredentialChecker is the bridge call that validates plant credentials.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, username, password string) ([]models.CredentialStatus, error)
}

// BridgeAuthenticator delegates the password check to the bridge and keeps a
// local user row for every operator that logs in.
type BridgeAuthenticator struct {
	Bridge CredentialChecker
	DB     *sqlite.DB
	Users  *cache.UserCache
	Logger *zap.Logger
}

func (a *BridgeAuthenticator) log() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *BridgeAuthenticator) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return models.User{}, err
	}
	username = strings.TrimSpace(username)
	statuses, err := a.Bridge.CheckCredentials(ctx, username, password)
	switch {
	case errors.Is(err, models.ErrInvalidDataFormat):
		a.log().Warn("credential check answered with an unexpected payload", zap.String("user", username), zap.Error(err))
		return models.User{}, ErrInvalidCredentials
	case err != nil:
		return models.User{}, fmt.Errorf("check credentials: %w", err)
	}
	if len(statuses) == 0 || !statuses[0].Status {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := upsertBridgeUser(ctx, a.DB, username, rbac.RoleOperator)
	if err != nil {
		return models.User{}, fmt.Errorf("store bridge user: %w", err)
	}
	if a.Users != nil {
		a.Users.Put(user)
	}
	return user, nil
}

// LocalAuthenticator checks argon2id hashes stored in sqlite.
type LocalAuthenticator struct {
	DB     *sqlite.DB
	Hasher *argon.Hasher
	Users  *cache.UserCache
}

func (a *LocalAuthenticator) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return models.User{}, err
	}
	user, err := LoadUserByUsername(ctx, a.DB, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	ok, err := a.Hasher.Verify(password, user.PasswordHash)
	if errors.Is(err, argon.ErrInvalidHash) {
		// Bridge-created rows have no local password.
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}

	if a.Hasher.NeedsRehash(user.PasswordHash) {
		if hash, err := a.Hasher.Hash(password); err == nil {
			if err := updatePasswordHash(ctx, a.DB, user.ID, hash); err != nil {
				zap.L().Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
			} else {
				user.PasswordHash = hash
			}
		}
	}
	if a.Users != nil {
		a.Users.Put(user)
	}
	return user, nil
}
