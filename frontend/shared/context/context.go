package context

import (
	"context"

	"seedflow/models"
)

type sessionKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// HasRole reports whether the session in ctx carries role.
func HasRole(ctx context.Context, role string) bool {
	s, ok := GetSessionFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range s.UserRoles {
		if r == role {
			return true
		}
	}
	return false
}
