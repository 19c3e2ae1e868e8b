// Package security provides token signing, password hashing, request
// validation and login throttling
package security

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer is written to and required in the iss claim
const TokenIssuer = "Recipes"

// DefaultTokenTTL is the lifetime of a session token
const DefaultTokenTTL = 30 * 24 * time.Hour

// JWTService implements outbound.TokenService with HS512 tokens
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ outbound.TokenService = (*JWTService)(nil)

// NewJWTService creates a token service from the auth configuration. Without
// a configured secret a random one is generated, so tokens do not survive a
// restart.
func NewJWTService(cfg config.AuthConfig, logger *zap.Logger) (*JWTService, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 64)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		logger.Warn("No JWT secret configured, using an ephemeral one")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &JWTService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a new token for userID
func (s *JWTService) Issue(userID int64) (string, *outbound.TokenClaims, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &outbound.TokenClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse verifies signature, issuer and expiry of a token
func (s *JWTService) Parse(tokenString string) (*outbound.TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject %q", claims.Subject)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no id")
	}

	return &outbound.TokenClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
