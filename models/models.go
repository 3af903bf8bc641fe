package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents an operator known to the dashboard.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	AuthSource   string    `bun:"auth_source,notnull,default:'local'"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuditLog records every status command sent to the bridge.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Action        string    `bun:"action,notnull"`
	EntityType    string    `bun:"entity_type,notnull"`
	EntityID      string    `bun:"entity_id,notnull"`
	CorrelationID string    `bun:"correlation_id,notnull"`
	BeforeJSON    string    `bun:"before_json"`
	AfterJSON     string    `bun:"after_json"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
