package apiclient

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// refreshSkew is how long before the exp claim a cached token is
	// considered stale.
	refreshSkew = 30 * time.Second

	// fallbackTTL applies when a token carries no readable exp claim.
	fallbackTTL = 5 * time.Minute
)

// TokenSource is a synchronized access-token cell shared by concurrent
// workers. It caches the last issued token and refreshes ahead of expiry;
// the exp claim is read without signature verification since the upstream
// API is the authority on validity.
type TokenSource struct {
	fetch func(ctx context.Context) (string, error)

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource wraps a fetch function (typically Client.Authenticate).
func NewTokenSource(fetch func(ctx context.Context) (string, error)) *TokenSource {
	return &TokenSource{fetch: fetch}
}

// Token returns the cached access token, fetching a fresh one when the
// cache is empty or inside the refresh window.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Now().Before(ts.expiresAt.Add(-refreshSkew)) {
		return ts.token, nil
	}
	return ts.refreshLocked(ctx)
}

// Refresh discards the cached token and fetches a new one. Called when the
// API answers 401/403 mid-batch.
func (ts *TokenSource) Refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.refreshLocked(ctx)
}

func (ts *TokenSource) refreshLocked(ctx context.Context) (string, error) {
	token, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}
	ts.token = token
	ts.expiresAt = tokenExpiry(token)
	return token, nil
}

func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(fallbackTTL)
}
