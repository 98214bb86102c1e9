package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
)

const (
	// defaultTriggerGrace gives the server-side trigger a head start to
	// materialise a profile row after account creation. The trigger is
	// asynchronous and not guaranteed to have fired within this window;
	// the insert-or-update fallback below covers the late case.
	defaultTriggerGrace = 300 * time.Millisecond

	// defaultConfirmDelay sits between the provisioning write and the
	// confirmation re-read.
	defaultConfirmDelay = 100 * time.Millisecond
)

// SessionStore reconciles the remote authentication session with the
// locally cached user profile. It is the sole writer of the cached
// {user, loading} pair: every mutation is an atomic assignment of the
// whole pair under the mutex, so overlapping operations are
// last-writer-wins and a half-applied state is never observable.
type SessionStore struct {
	provider ports.IdentityProvider
	profiles ports.ProfileRepository
	state    ports.StateStore
	log      zerolog.Logger

	triggerGrace time.Duration
	confirmDelay time.Duration

	mu      sync.Mutex
	user    *domain.User
	loading bool
	// expect is the account id the store currently considers signed in
	// ("" when signed out). gen increments on every session-establishing
	// or session-clearing commit. Together they let a slow CheckAuth
	// discard its result instead of resurrecting a stale user.
	expect string
	gen    uint64
}

// StoreOption tweaks SessionStore construction.
type StoreOption func(*SessionStore)

// WithTriggerGrace overrides the grace period granted to the
// server-side profile trigger during sign-up.
func WithTriggerGrace(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.triggerGrace = d }
}

// WithConfirmDelay overrides the delay before the sign-up confirmation
// re-read.
func WithConfirmDelay(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.confirmDelay = d }
}

// NewSessionStore builds the store and restores the persisted user, if
// any. Loading always starts false regardless of what was persisted.
func NewSessionStore(
	ctx context.Context,
	provider ports.IdentityProvider,
	profiles ports.ProfileRepository,
	state ports.StateStore,
	log zerolog.Logger,
	opts ...StoreOption,
) *SessionStore {
	s := &SessionStore{
		provider:     provider,
		profiles:     profiles,
		state:        state,
		log:          log,
		triggerGrace: defaultTriggerGrace,
		confirmDelay: defaultConfirmDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	user, err := state.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to restore persisted session state")
	} else if user != nil {
		s.user = user
		s.expect = user.ID
	}
	return s
}

// State returns a read-only snapshot of the current session state.
func (s *SessionStore) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionState{User: s.user.Clone(), Loading: s.loading}
}

// SignUp creates a new account, then reconciles the profile row with
// the chosen role regardless of whether the server-side trigger or this
// agent's insert materialises it first.
func (s *SessionStore) SignUp(ctx context.Context, email, password string, role domain.UserRole) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	s.setLoading(true)

	accountID, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return err
	}

	// Give the trigger a chance to create the profile row first.
	s.pause(ctx, s.triggerGrace)

	now := time.Now().UTC()
	if err := s.reconcileProfile(ctx, accountID, email, role, now); err != nil {
		return s.abort(ctx, err)
	}

	// Re-read for confirmation: success is only reported with a user
	// that reflects confirmed durable state.
	s.pause(ctx, s.confirmDelay)
	confirmed, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil {
		return s.abort(ctx, err)
	}

	s.commit(confirmed)
	s.log.Info().Str("account_id", accountID).Str("role", string(role)).Msg("sign-up complete")
	return nil
}

// reconcileProfile applies the insert-or-update-on-conflict contract:
// exactly one profile row exists afterwards with the requested role, no
// matter which side of the race created it.
func (s *SessionStore) reconcileProfile(ctx context.Context, accountID, email string, role domain.UserRole, now time.Time) error {
	patch := ports.ProfilePatch{Email: &email, Role: &role, UpdatedAt: &now}

	existing, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil && errors.Is(err, domain.ErrSchemaMissing) {
		return err
	}
	if existing != nil {
		// Trigger won outright; it may have used the default role.
		return s.profiles.Update(ctx, accountID, patch)
	}

	row := &domain.User{ID: accountID, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	if _, err := s.profiles.Insert(ctx, row); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Trigger won the race between the lookup and the insert.
			s.log.Debug().Str("account_id", accountID).Msg("profile created by trigger, updating role instead")
			return s.profiles.Update(ctx, accountID, patch)
		}
		return err
	}
	return nil
}

// abort compensates a failed sign-up: the fresh account is signed back
// out so no account is left without a usable profile.
func (s *SessionStore) abort(ctx context.Context, cause error) error {
	if err := s.provider.RevokeSession(ctx); err != nil {
		s.log.Warn().Err(err).Msg("compensating sign-out failed")
	}
	s.setLoading(false)
	return cause
}

// SignIn issues a session and resolves the profile, provisioning a
// default-role row when the account has none.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)

	accountID, err := s.provider.IssueSession(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return err
	}

	profile, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil {
		// A session must never be left active without a local profile.
		now := time.Now().UTC()
		row := &domain.User{ID: accountID, Email: email, Role: domain.DefaultRole, CreatedAt: now, UpdatedAt: now}
		profile, err = s.profiles.Insert(ctx, row)
		if err != nil {
			return s.abort(ctx, err)
		}
	}

	s.commit(profile)
	s.log.Info().Str("account_id", accountID).Msg("sign-in complete")
	return nil
}

// SignOut revokes the remote session best-effort and always clears
// local state.
func (s *SessionStore) SignOut(ctx context.Context) {
	if err := s.provider.RevokeSession(ctx); err != nil {
		s.log.Warn().Err(err).Msg("remote session revoke failed, clearing local state anyway")
	}
	s.clear(ctx)
}

// ForceSignedOut clears local state without a remote round trip. Used
// by the auth change listener when the provider reports the session
// gone.
func (s *SessionStore) ForceSignedOut(ctx context.Context) {
	s.clear(ctx)
}

// CheckAuth reconciles the cached user with the provider's current
// session. Idempotent and safe to call concurrently: results that no
// longer match the store's session context are discarded rather than
// overwriting a newer state.
func (s *SessionStore) CheckAuth(ctx context.Context) {
	startGen := s.beginCheck()

	accountID, ok, err := s.provider.ActiveSession(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session check failed")
		s.commitCheck(ctx, startGen, nil)
		return
	}
	if !ok {
		s.commitCheck(ctx, startGen, nil)
		return
	}

	// A session without a readable profile is treated as
	// unauthenticated; unlike SignIn, no profile is fabricated here.
	profile, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil {
		s.log.Debug().Err(err).Str("account_id", accountID).Msg("session present but profile unreadable")
		s.commitCheck(ctx, startGen, nil)
		return
	}

	s.commitCheck(ctx, startGen, profile)
}

// UpdateUserRole changes the current user's role remotely and, only on
// success, locally. Other cached fields are left untouched, and a
// rejected write leaves the cache unchanged.
func (s *SessionStore) UpdateUserRole(ctx context.Context, role domain.UserRole) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	s.mu.Lock()
	current := s.user.Clone()
	s.mu.Unlock()
	if current == nil {
		return nil
	}

	if err := s.profiles.Update(ctx, current.ID, ports.ProfilePatch{Role: &role}); err != nil {
		s.log.Error().Err(err).Str("account_id", current.ID).Msg("role update rejected")
		return err
	}

	s.mu.Lock()
	// Re-check under the lock: the user may have signed out meanwhile.
	if s.user != nil && s.user.ID == current.ID {
		updated := s.user.Clone()
		updated.Role = role
		s.user = updated
		s.persist(ctx, updated)
	}
	s.mu.Unlock()
	return nil
}

// --- state transitions ---

// setLoading writes the whole pair, toggling only the loading flag.
func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// commit installs a confirmed user and marks the operation settled.
func (s *SessionStore) commit(user *domain.User) {
	s.mu.Lock()
	s.user = user.Clone()
	s.loading = false
	s.expect = user.ID
	s.gen++
	s.persist(context.Background(), s.user)
	s.mu.Unlock()
}

// clear resets to the signed-out state.
func (s *SessionStore) clear(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.loading = false
	s.expect = ""
	s.gen++
	s.persist(ctx, nil)
	s.mu.Unlock()
}

func (s *SessionStore) beginCheck() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	return s.gen
}

// commitCheck applies a reconciliation result unless a
// session-establishing or -clearing operation committed since the check
// began, or the resolved account contradicts the expected one.
func (s *SessionStore) commitCheck(ctx context.Context, startGen uint64, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != startGen {
		s.log.Debug().Msg("stale session check discarded")
		return
	}
	if user != nil && s.expect != "" && s.expect != user.ID {
		s.log.Debug().Str("account_id", user.ID).Msg("session check resolved a different account, discarded")
		s.loading = false
		return
	}

	s.user = user.Clone()
	s.loading = false
	if user == nil {
		s.expect = ""
	} else {
		s.expect = user.ID
	}
	s.persist(ctx, s.user)
}

// persist writes the {user} subset through the state store. Failures
// are logged, never propagated: the in-memory state stays authoritative
// for this process.
func (s *SessionStore) persist(ctx context.Context, user *domain.User) {
	if s.state == nil {
		return
	}
	if err := s.state.Save(ctx, user); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist session state")
	}
}

// pause waits for d or until ctx is cancelled.
func (s *SessionStore) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
