package adminusers

import (
	"time"

	"seedflow/frontend/shared/html"
)

type UserView struct {
	ID         int64     `bun:"id"`
	Username   string    `bun:"username"`
	Role       string    `bun:"role"`
	AuthSource string    `bun:"auth_source"`
	CreatedAt  time.Time `bun:"created_at"`
}

type PageData struct {
	Layout       html.LayoutData
	Users        []UserView
	Roles        []string
	CurrentID    int64
	LocalMode    bool
	Status       string
	ErrorMessage string
}

// NewUserInput is the create form.
type NewUserInput struct {
	Username string `validate:"required,min=3,max=64"`
	Password string `validate:"required"`
	Role     string `validate:"required,oneof=admin operator"`
}
