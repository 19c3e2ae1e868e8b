package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/shared"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// ErrObjectNotFound is returned by StorageService.Open for unknown keys
var ErrObjectNotFound = errors.New("object not found")

// StorageService defines the interface for file storage. Keys are slash
// separated paths such as "pictures/12/original.jpg".
type StorageService interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher hands domain events to in-process subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event shared.DomainEvent)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenClaims is the verified content of an auth token
type TokenClaims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies auth tokens
type TokenService interface {
	Issue(userID int64) (string, *TokenClaims, error)
	Parse(token string) (*TokenClaims, error)
}

// AutoFillRecorder observes weekplan auto-fill runs
type AutoFillRecorder interface {
	RecordAutoFill(filled, unfilled int, duration time.Duration)
}
