package security

import (
	"testing"
	"time"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	apperrors "github.com/alchemorsel/recipes/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type JWTServiceTestSuite struct {
	suite.Suite
	service *JWTService
	clock   time.Time
}

func (s *JWTServiceTestSuite) SetupTest() {
	var err error
	s.service, err = NewJWTService(config.AuthConfig{
		JWTSecret: "test-secret-key-for-testing-only-32-bytes",
	}, zap.NewNop())
	s.Require().NoError(err)

	s.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.clock }
}

func (s *JWTServiceTestSuite) TestIssueAndParse() {
	token, issued, err := s.service.Issue(42)
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal(int64(42), issued.UserID)
	s.NotEmpty(issued.TokenID)
	s.Equal(s.clock.Add(DefaultTokenTTL), issued.ExpiresAt)

	claims, err := s.service.Parse(token)
	s.Require().NoError(err)
	s.Equal(issued.UserID, claims.UserID)
	s.Equal(issued.TokenID, claims.TokenID)
	s.True(issued.ExpiresAt.Equal(claims.ExpiresAt))
}

func (s *JWTServiceTestSuite) TestTokenIDsAreUnique() {
	_, first, err := s.service.Issue(1)
	s.Require().NoError(err)
	_, second, err := s.service.Issue(1)
	s.Require().NoError(err)
	s.NotEqual(first.TokenID, second.TokenID)
}

func (s *JWTServiceTestSuite) TestSignsWithHS512() {
	token, _, err := s.service.Issue(7)
	s.Require().NoError(err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	s.Require().NoError(err)
	s.Equal("HS512", parsed.Method.Alg())

	issuer, err := parsed.Claims.GetIssuer()
	s.Require().NoError(err)
	s.Equal(TokenIssuer, issuer)
}

func (s *JWTServiceTestSuite) TestRejectsExpiredToken() {
	token, _, err := s.service.Issue(7)
	s.Require().NoError(err)

	s.clock = s.clock.Add(DefaultTokenTTL + time.Minute)
	_, err = s.service.Parse(token)
	s.Error(err)
}

func (s *JWTServiceTestSuite) TestRejectsForeignTokens() {
	s.Run("other secret", func() {
		other, err := NewJWTService(config.AuthConfig{JWTSecret: "another-secret"}, zap.NewNop())
		s.Require().NoError(err)
		other.now = s.service.now

		token, _, err := other.Issue(7)
		s.Require().NoError(err)
		_, err = s.service.Parse(token)
		s.Error(err)
	})

	s.Run("other issuer", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer:    "Someone",
			Subject:   "7",
			ID:        "abc",
			ExpiresAt: jwt.NewNumericDate(s.clock.Add(time.Hour)),
		})
		signed, err := token.SignedString(s.service.secret)
		s.Require().NoError(err)
		_, err = s.service.Parse(signed)
		s.Error(err)
	})

	s.Run("other algorithm", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   "7",
			ID:        "abc",
			ExpiresAt: jwt.NewNumericDate(s.clock.Add(time.Hour)),
		})
		signed, err := token.SignedString(s.service.secret)
		s.Require().NoError(err)
		_, err = s.service.Parse(signed)
		s.Error(err)
	})

	s.Run("non numeric subject", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   "alice",
			ID:        "abc",
			ExpiresAt: jwt.NewNumericDate(s.clock.Add(time.Hour)),
		})
		signed, err := token.SignedString(s.service.secret)
		s.Require().NoError(err)
		_, err = s.service.Parse(signed)
		s.Error(err)
	})

	s.Run("garbage", func() {
		_, err := s.service.Parse("not-a-token")
		s.Error(err)
	})
}

func TestJWTServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JWTServiceTestSuite))
}

func TestJWTServiceEphemeralSecret(t *testing.T) {
	a, err := NewJWTService(config.AuthConfig{}, zap.NewNop())
	require.NoError(t, err)
	b, err := NewJWTService(config.AuthConfig{}, zap.NewNop())
	require.NoError(t, err)

	token, _, err := a.Issue(1)
	require.NoError(t, err)

	_, err = a.Parse(token)
	assert.NoError(t, err)
	_, err = b.Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hasher := NewPasswordHashingService()

	encoded, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again, "salt must differ between hashes")

	_, err = hasher.Verify("x", "not base64!")
	assert.Error(t, err)
	_, err = hasher.Verify("x", "c2hvcnQ=")
	assert.Error(t, err)
}

func TestValidationService(t *testing.T) {
	v := NewValidationService()

	t.Run("valid command", func(t *testing.T) {
		err := v.Validate(inbound.UnitCommand{Identifier: "tbsp", BaseValue: 15})
		assert.NoError(t, err)
	})

	t.Run("reports every field by json name", func(t *testing.T) {
		err := v.Validate(inbound.IngredientCommand{Name: "", Reference: "kg", Fat: -1})
		require.Error(t, err)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)

		fields := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(t, []string{"name", "reference", "fat"}, names)
	})

	t.Run("nested fields", func(t *testing.T) {
		amount := -2.0
		err := v.Validate(inbound.StepCommand{
			StepIngredients: []inbound.StepIngredientCommand{{IngredientID: 1, Amount: &amount}},
		})
		require.Error(t, err)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		fields := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
		require.Len(t, fields, 1)
		assert.Equal(t, "step_ingredients[0].amount", fields[0].Field)
		assert.Equal(t, "gte", fields[0].Tag)
	})

	t.Run("weekdays", func(t *testing.T) {
		assert.NoError(t, v.Validate(inbound.AutoFillCommand{Days: []int{1, 7}}))
		assert.Error(t, v.Validate(inbound.AutoFillCommand{Days: []int{0}}))
		assert.Error(t, v.Validate(inbound.AutoFillCommand{Days: []int{8}}))
	})
}

func TestLoginLimiter(t *testing.T) {
	limiter := NewLoginLimiter(60, 2)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, limiter.Allow("10.0.0.2"), "keys are independent")

	clock = clock.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "one token per second refills")
	assert.False(t, limiter.Allow("10.0.0.1"))

	clock = clock.Add(time.Hour)
	assert.True(t, limiter.Allow("10.0.0.3"))
	assert.Len(t, limiter.visitors, 1, "idle visitors are swept")
}

func TestLoginLimiterDisabled(t *testing.T) {
	limiter := NewLoginLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow("10.0.0.1"))
	}
}

func TestCookieSigner(t *testing.T) {
	signer := NewCookieSigner("0123456789abcdef0123456789abcdef")
	require.True(t, signer.Enabled())

	sig := signer.Sign("token-value")
	assert.True(t, signer.Verify("token-value", sig))
	assert.False(t, signer.Verify("other-value", sig))
	assert.False(t, signer.Verify("token-value", ""))
	assert.False(t, signer.Verify("token-value", "%%%"))

	disabled := NewCookieSigner("")
	assert.False(t, disabled.Enabled())
	assert.True(t, disabled.Verify("token-value", ""))
}
