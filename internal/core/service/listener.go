package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shopnow/auth-agent/internal/core/ports"
)

// AuthChangeListener consumes session-change notifications from the
// identity provider and reconciles them into the session store. It is
// the single consumer of the change channel, so notifications are
// processed one at a time even while UI-triggered operations run
// concurrently.
type AuthChangeListener struct {
	store   *SessionStore
	changes <-chan ports.SessionChange
	log     zerolog.Logger
}

// NewAuthChangeListener wires the listener to the store and the
// provider's change channel.
func NewAuthChangeListener(store *SessionStore, provider ports.IdentityProvider, log zerolog.Logger) *AuthChangeListener {
	return &AuthChangeListener{store: store, changes: provider.SessionChanges(), log: log}
}

// Run processes notifications until ctx is cancelled or the channel is
// closed. Start it once, for the process lifetime.
func (l *AuthChangeListener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, open := <-l.changes:
			if !open {
				return
			}
			l.reconcile(ctx, change)
		}
	}
}

func (l *AuthChangeListener) reconcile(ctx context.Context, change ports.SessionChange) {
	if !change.Active {
		// Session gone: clear directly, no round trip needed.
		l.log.Debug().Msg("session ended, clearing cached user")
		l.store.ForceSignedOut(ctx)
		return
	}

	// Skip reconciliation when the cached user already matches the
	// notified session; the operation that set it has done the work.
	if state := l.store.State(); state.User != nil && state.User.ID == change.AccountID {
		return
	}

	l.log.Debug().Str("account_id", change.AccountID).Msg("session changed, reconciling")
	l.store.CheckAuth(ctx)
}
