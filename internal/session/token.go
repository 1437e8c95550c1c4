package session

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

type storeTokenSource struct {
	ctx   context.Context
	store kv.Store
	key   string
}

// NewTokenSource returns an [oauth2.TokenSource] that reads key on every call,
// so a logout or a new login is picked up by clients built earlier.
func NewTokenSource(ctx context.Context, store kv.Store, key string) oauth2.TokenSource {
	if key == "" {
		key = DefaultTokenKey
	}
	return &storeTokenSource{ctx: ctx, store: store, key: key}
}

// TokenSource is [NewTokenSource] over the manager's token key.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return NewTokenSource(ctx, m.store, m.tokenKey)
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	v, ok := kv.Lookup(s.ctx, s.store, s.key)
	if !ok || v == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, nil
}

// TokenInfo is what can be read from a JWT credential without verifying it.
type TokenInfo struct {
	Subject   string
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// DescribeToken decodes the claims of a JWT token without checking its signature.
// The result is informational only; tokens are opaque to authentication.
func DescribeToken(raw string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: token is not a JWT: %v", shared.ErrInvalidInput, err)
	}

	info := TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if v, ok := claims["id"]; ok && info.Subject == "" {
		info.Subject = fmt.Sprint(v)
	}
	if v, ok := claims["username"].(string); ok {
		info.Username = v
	}
	if v, ok := claims["email"].(string); ok {
		info.Email = v
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
