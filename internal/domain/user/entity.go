// Package user defines the user domain entity
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/shared"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email too long")
	ErrNameTooLong      = errors.New("name too long")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrInvalidRole      = errors.New("role must be root or user")
)

// Role represents the role of a user
type Role string

const (
	RoleRoot Role = "root"
	RoleUser Role = "user"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleRoot || r == RoleUser
}

// User represents a user in the system
type User struct {
	id           int64
	email        string
	name         string
	passwordHash string
	active       bool
	role         Role
	avatar       string
	createdAt    time.Time
	updatedAt    time.Time

	events []shared.DomainEvent
}

// Snapshot carries persisted user state for rehydration
type Snapshot struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	Role         Role
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a new active user with validation. The password hash is
// produced by the caller's hasher and may be empty for accounts that cannot
// log in yet
func NewUser(email, name string, role Role) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()
	return &User{
		email:     email,
		name:      strings.TrimSpace(name),
		active:    true,
		role:      role,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Rehydrate rebuilds a user from storage without re-validating it
func Rehydrate(s Snapshot) *User {
	return &User{
		id:           s.ID,
		email:        s.Email,
		name:         s.Name,
		passwordHash: s.PasswordHash,
		active:       s.Active,
		role:         s.Role,
		avatar:       s.Avatar,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}

// Snapshot exports the user state for persistence
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:           u.id,
		Email:        u.email,
		Name:         u.name,
		PasswordHash: u.passwordHash,
		Active:       u.active,
		Role:         u.role,
		Avatar:       u.avatar,
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

// ID returns the user's ID
func (u *User) ID() int64 {
	return u.id
}

// AssignID is called by the repository after insert
func (u *User) AssignID(id int64) {
	u.id = id
}

// Email returns the user's email
func (u *User) Email() string {
	return u.email
}

// Name returns the user's display name, which may be empty
func (u *User) Name() string {
	return u.name
}

// DisplayName is the name, falling back to the email
func (u *User) DisplayName() string {
	if u.name != "" {
		return u.name
	}
	return u.email
}

// IsActive reports whether the account is active
func (u *User) IsActive() bool {
	return u.active
}

// Role returns the user's role
func (u *User) Role() Role {
	return u.role
}

// IsRoot reports whether the user has the root role
func (u *User) IsRoot() bool {
	return u.role == RoleRoot
}

// Avatar returns the stored avatar file name
func (u *User) Avatar() string {
	return u.avatar
}

// PasswordHash returns the encoded password hash
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// HasPassword reports whether a password has been set
func (u *User) HasPassword() bool {
	return u.passwordHash != ""
}

// CreatedAt returns the creation time
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns the last update time
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// Update replaces email, name and role. Updating reactivates the account
func (u *User) Update(email, name string, role Role) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	if !role.IsValid() {
		return ErrInvalidRole
	}

	u.email = email
	u.name = strings.TrimSpace(name)
	u.role = role
	u.active = true
	u.updatedAt = time.Now().UTC()
	return nil
}

// SetPasswordHash stores a new password hash
func (u *User) SetPasswordHash(hash string) {
	u.passwordHash = hash
	u.updatedAt = time.Now().UTC()
}

// AttachAvatar records a newly uploaded avatar file
func (u *User) AttachAvatar(filename string) {
	u.avatar = filename
	u.updatedAt = time.Now().UTC()
	u.events = append(u.events, AvatarAttachedEvent{
		UserID:     u.id,
		Filename:   filename,
		AttachedAt: u.updatedAt,
	})
}

// Deactivate deactivates the user
func (u *User) Deactivate() {
	u.active = false
	u.updatedAt = time.Now().UTC()
}

// Events returns and clears pending domain events
func (u *User) Events() []shared.DomainEvent {
	events := u.events
	u.events = nil
	return events
}

// ValidatePassword checks a plain-text password before hashing
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > 128 {
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(email) > 255 {
		return ErrEmailTooLong
	}
	return nil
}

func validateName(name string) error {
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
