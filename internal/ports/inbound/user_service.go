package inbound

import (
	"context"
	"io"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/user"
)

// UserService defines the use cases for user management
type UserService interface {
	ListUsers(ctx context.Context, actor *user.User, query ListQuery) ([]*UserDTO, error)
	CountUsers(ctx context.Context, actor *user.User, query ListQuery) (int64, error)
	GetUser(ctx context.Context, actor *user.User, id int64) (*UserDTO, error)
	CreateUser(ctx context.Context, actor *user.User, cmd UserCommand) (*UserDTO, error)
	UpdateUser(ctx context.Context, actor *user.User, id int64, cmd UserCommand) (*UserDTO, error)
	DeleteUser(ctx context.Context, actor *user.User, id int64) error
	AttachAvatar(ctx context.Context, actor *user.User, id int64, filename string, data io.Reader) (*UserDTO, error)
}

// SessionService defines the login, refresh and logout use cases
type SessionService interface {
	Login(ctx context.Context, cmd LoginCommand) (*SessionDTO, error)
	Refresh(ctx context.Context, actor *user.User) (*SessionDTO, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	// Resolve maps a raw token to its user. Invalid, expired or revoked
	// tokens yield a nil user and a nil error.
	Resolve(ctx context.Context, token string) (*user.User, *SessionClaims, error)
}

// UserCommand contains data for creating or updating a user. A nil
// password leaves the stored password unchanged.
type UserCommand struct {
	Email    string    `json:"email" validate:"required,email,max=255"`
	Name     string    `json:"name" validate:"max=100"`
	Password *string   `json:"password" validate:"omitempty,min=8,max=128"`
	Role     user.Role `json:"role" validate:"omitempty,oneof=root user"`
}

// LoginCommand contains user login data
type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Active    bool      `json:"active"`
	Role      user.Role `json:"role"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"inserted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionDTO is returned by login and refresh
type SessionDTO struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionClaims identifies the token a request was made with
type SessionClaims struct {
	TokenID   string
	ExpiresAt time.Time
}
