package ports

import (
	"context"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// StateStore persists the {user} subset of the session state across
// agent restarts. Loading is deliberately excluded: a stale loading
// flag must never survive a cold start.
type StateStore interface {
	// Load returns the persisted user, or nil when no record exists.
	Load(ctx context.Context) (*domain.User, error)

	// Save overwrites the persisted record. A nil user clears it.
	Save(ctx context.Context, user *domain.User) error
}
