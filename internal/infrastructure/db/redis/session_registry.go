package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// SessionRegistry tracks live session tokens in Redis so server-side
// revocation wins over an unexpired JWT.
// Key format: session:<token>
type SessionRegistry struct {
	client *redis.Client
}

// NewSessionRegistry wraps the given Redis client.
func NewSessionRegistry(client *redis.Client) *SessionRegistry {
	return &SessionRegistry{client: client}
}

// Put registers a token for accountID, expiring with the session TTL.
func (r *SessionRegistry) Put(ctx context.Context, token, accountID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(token), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// Resolve returns the account id a live token belongs to. Expired or
// revoked tokens yield domain.ErrNoActiveSession.
func (r *SessionRegistry) Resolve(ctx context.Context, token string) (string, error) {
	accountID, err := r.client.Get(ctx, r.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoActiveSession
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return accountID, nil
}

// Delete revokes a token.
func (r *SessionRegistry) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRegistry) key(token string) string {
	return "session:" + token
}
