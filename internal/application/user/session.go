package user

import (
	"context"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

const revokedPrefix = "session:revoked:"

// SessionService issues and resolves auth tokens
type SessionService struct {
	userRepo outbound.UserRepository
	hasher   outbound.PasswordHasher
	tokens   outbound.TokenService
	cache    outbound.CacheRepository
	logger   *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	userRepo outbound.UserRepository,
	hasher outbound.PasswordHasher,
	tokens outbound.TokenService,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		cache:    cache,
		logger:   logger.Named("session-service"),
	}
}

var _ inbound.SessionService = (*SessionService)(nil)

// Login authenticates a user by email and password
func (s *SessionService) Login(ctx context.Context, cmd inbound.LoginCommand) (*inbound.SessionDTO, error) {
	entity, err := s.Authenticate(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(entity)
}

// Authenticate returns the active user owning email and password
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	entity, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewDatabaseError("find user by email", err)
	}
	if entity == nil || !entity.IsActive() || !entity.HasPassword() {
		s.logger.Warn("Login for unknown or disabled account", zap.String("email", email))
		return nil, errors.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(password, entity.PasswordHash())
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.Int64("user_id", entity.ID()), zap.Error(err))
		return nil, errors.NewInvalidCredentialsError()
	}
	if !ok {
		s.logger.Warn("Invalid password attempt", zap.String("email", email))
		return nil, errors.NewInvalidCredentialsError()
	}
	return entity, nil
}

// Refresh issues a new token for the current user
func (s *SessionService) Refresh(ctx context.Context, actor *user.User) (*inbound.SessionDTO, error) {
	if actor == nil {
		return nil, errors.NewUnauthorizedError("")
	}
	return s.issue(actor)
}

// Logout revokes a token until it would have expired anyway
func (s *SessionService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedPrefix+tokenID, []byte("1"), ttl); err != nil {
		return errors.Wrap(err, "failed to revoke session")
	}
	s.logger.Info("Session revoked", zap.String("token_id", tokenID))
	return nil
}

// Resolve maps a raw token to its user. Anything wrong with the token makes
// the request anonymous.
func (s *SessionService) Resolve(ctx context.Context, token string) (*user.User, *inbound.SessionClaims, error) {
	if token == "" {
		return nil, nil, nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug("Ignoring invalid token", zap.Error(err))
		return nil, nil, nil
	}

	revoked, err := s.cache.Exists(ctx, revokedPrefix+claims.TokenID)
	if err != nil {
		s.logger.Warn("Revocation check failed", zap.String("token_id", claims.TokenID), zap.Error(err))
		return nil, nil, nil
	}
	if revoked {
		return nil, nil, nil
	}

	entity, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, errors.NewDatabaseError("find session user", err)
	}
	if entity == nil || !entity.IsActive() {
		return nil, nil, nil
	}
	return entity, &inbound.SessionClaims{TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

func (s *SessionService) issue(entity *user.User) (*inbound.SessionDTO, error) {
	token, claims, err := s.tokens.Issue(entity.ID())
	if err != nil {
		return nil, errors.NewInternalError("failed to issue token").WithCause(err)
	}

	s.logger.Info("Session issued",
		zap.Int64("user_id", entity.ID()),
		zap.Time("expires_at", claims.ExpiresAt),
	)
	return &inbound.SessionDTO{
		User:      ToDTO(entity),
		Token:     token,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}
