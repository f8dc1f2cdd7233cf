// Package session verifies the auth provider's JWT session tokens. The
// provider issues them; this service only checks signatures and claims.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fishandtips/newsletter/webutil"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the identity extracted from a verified token. Admin is a
// token claim, not an email comparison, so "who is an admin" lives with
// the issuer rather than in business logic.
type Session struct {
	UserID    string
	Email     string
	FirstName string
	Admin     bool
}

type claims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	Admin     bool   `json:"admin"`
	jwt.RegisteredClaims
}

type contextKey struct{}

var sessionKey contextKey

// FromContext returns the verified session placed by Require.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// NewContext injects a session directly; handler tests use it.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Require verifies the Authorization bearer token and rejects the
// request with 401 before any business logic runs.
func Require(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				webutil.RespondWithError(w, http.StatusUnauthorized, "Missing session token")
				return
			}

			s, err := verify(token, secret)
			if err != nil {
				webutil.RespondWithError(w, http.StatusUnauthorized, "Invalid session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func verify(token string, secret []byte) (*Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, fmt.Errorf("session token has no subject")
	}

	return &Session{
		UserID:    c.Subject,
		Email:     c.Email,
		FirstName: c.FirstName,
		Admin:     c.Admin,
	}, nil
}
