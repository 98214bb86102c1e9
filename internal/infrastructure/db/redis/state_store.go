package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// StateStore persists the agent's {user} snapshot as a single named
// Redis record, the durable counterpart of the in-memory session state.
// Only the user survives restarts; the loading flag is never written.
type StateStore struct {
	client *redis.Client
	key    string
}

// NewStateStore wraps the given client. key names the record, e.g.
// "auth:state:agent".
func NewStateStore(client *redis.Client, key string) *StateStore {
	return &StateStore{client: client, key: key}
}

type stateRecord struct {
	User *domain.User `json:"user"`
}

// Load restores the persisted user. A missing record is not an error.
func (s *StateStore) Load(ctx context.Context) (*domain.User, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return rec.User, nil
}

// Save overwrites the record. A nil user is stored explicitly so a
// signed-out state survives restarts too.
func (s *StateStore) Save(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(stateRecord{User: user})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
