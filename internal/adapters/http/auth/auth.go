// Package auth turns bearer JWTs into the normalized model.UserSummary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/campuslink/beacon/internal/domain/model"
)

// Sentinel kinds for authentication errors.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type contextKey struct{}

// Claims carried by beacon tokens.
type Claims struct {
	UserID  string   `json:"user_id"`
	Name    string   `json:"name,omitempty"`
	College string   `json:"college,omitempty"`
	Year    string   `json:"year,omitempty"`
	Badges  []string `json:"badges,omitempty"`
	jwt.RegisteredClaims
}

// User converts the claims into a UserSummary.
func (c *Claims) User() model.UserSummary {
	return model.UserSummary{
		ID:      c.UserID,
		Name:    c.Name,
		College: c.College,
		Year:    c.Year,
		Badges:  append([]string(nil), c.Badges...),
	}
}

// Issue signs an HS256 token for user valid for ttl.
func Issue(secret string, user model.UserSummary, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:  user.ID,
		Name:    user.Name,
		College: user.College,
		Year:    user.Year,
		Badges:  user.Badges,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates token and returns its user.
func Parse(secret, token string) (model.UserSummary, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.UserSummary{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return model.UserSummary{}, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	return claims.User(), nil
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user model.UserSummary) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (model.UserSummary, bool) {
	user, ok := ctx.Value(contextKey{}).(model.UserSummary)
	return user, ok
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticator verifies bearer tokens signed with one secret.
type Authenticator struct {
	secret string
}

// NewAuthenticator creates an Authenticator for secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate resolves the request's user.
func (a *Authenticator) Authenticate(r *http.Request) (model.UserSummary, error) {
	token, err := bearer(r)
	if err != nil {
		return model.UserSummary{}, err
	}
	return Parse(a.secret, token)
}

// Optional attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user, err := a.Authenticate(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	}
}

// Required rejects requests without a valid token by calling deny.
func (a *Authenticator) Required(next http.HandlerFunc, deny func(http.ResponseWriter, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r)
		if err != nil {
			deny(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	}
}
