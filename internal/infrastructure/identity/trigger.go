package identity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
)

const triggerTimeout = 5 * time.Second

// ProfileTrigger replicates the backend's post-signup trigger: some
// time after an account is created it inserts a default-role profile
// row, concurrently with (and possibly racing) the agent's own
// provisioning.
type ProfileTrigger struct {
	profiles ports.ProfileRepository
	delay    time.Duration
	log      zerolog.Logger
}

// NewProfileTrigger builds a trigger that fires after delay.
func NewProfileTrigger(profiles ports.ProfileRepository, delay time.Duration, log zerolog.Logger) *ProfileTrigger {
	return &ProfileTrigger{profiles: profiles, delay: delay, log: log}
}

// Fire schedules the provisioning asynchronously and returns
// immediately, like the real trigger would.
func (t *ProfileTrigger) Fire(accountID, email string) {
	go t.provision(accountID, email)
}

func (t *ProfileTrigger) provision(accountID, email string) {
	if t.delay > 0 {
		time.Sleep(t.delay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := t.profiles.Insert(ctx, &domain.User{
		ID:        accountID,
		Email:     email,
		Role:      domain.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	})
	switch {
	case err == nil:
		t.log.Debug().Str("account_id", accountID).Msg("trigger provisioned default profile")
	case errors.Is(err, domain.ErrConflict):
		// Agent won the race; nothing to do.
	default:
		t.log.Warn().Err(err).Str("account_id", accountID).Msg("trigger failed to provision profile")
	}
}
