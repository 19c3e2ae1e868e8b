package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/respond"
	"github.com/alchemorsel/recipes/internal/infrastructure/security"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"go.uber.org/zap"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "session_claims"
)

// DefaultCookieName holds the auth token when none is configured
const DefaultCookieName = "recipes_auth"

// Authenticator resolves the acting user of a request. Requests without a
// usable token continue anonymously.
type Authenticator struct {
	sessions   inbound.SessionService
	signer     *security.CookieSigner
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewAuthenticator creates the session middleware. Cookies are marked
// Secure when secure is set.
func NewAuthenticator(sessions inbound.SessionService, signer *security.CookieSigner, cookieName string, secure bool, logger *zap.Logger) *Authenticator {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Authenticator{
		sessions:   sessions,
		signer:     signer,
		cookieName: cookieName,
		secure:     secure,
		logger:     logger.Named("auth"),
	}
}

// Middleware stores the resolved user and session in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, claims, err := a.sessions.Resolve(r.Context(), token)
		if err != nil {
			respond.Error(w, r, a.logger, err)
			return
		}
		if actor == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), actor, claims)))
	})
}

// token reads the bearer token first and falls back to the cookie
func (a *Authenticator) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if a.signer.Enabled() {
		sig, err := r.Cookie(a.sigName())
		if err != nil || !a.signer.Verify(cookie.Value, sig.Value) {
			a.logger.Debug("Ignoring auth cookie with a bad signature")
			return ""
		}
	}
	return cookie.Value
}

// SetCookie stores token in the auth cookie until expiresAt
func (a *Authenticator) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, a.cookie(a.cookieName, token, expiresAt))
	if a.signer.Enabled() {
		http.SetCookie(w, a.cookie(a.sigName(), a.signer.Sign(token), expiresAt))
	}
}

// ClearCookie expires the auth cookie
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	expired := a.cookie(a.cookieName, "", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	if a.signer.Enabled() {
		sig := a.cookie(a.sigName(), "", time.Unix(0, 0))
		sig.MaxAge = -1
		http.SetCookie(w, sig)
	}
}

func (a *Authenticator) cookie(name, value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *Authenticator) sigName() string {
	return a.cookieName + "_sig"
}

// WithSession returns a context carrying the acting user and token claims
func WithSession(ctx context.Context, actor *user.User, claims *inbound.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, userKey, actor)
	return context.WithValue(ctx, claimsKey, claims)
}

// CurrentUser returns the acting user, nil for anonymous requests
func CurrentUser(ctx context.Context) *user.User {
	actor, _ := ctx.Value(userKey).(*user.User)
	return actor
}

// CurrentSession returns the claims of the token the request was made with
func CurrentSession(ctx context.Context) *inbound.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*inbound.SessionClaims)
	return claims
}
