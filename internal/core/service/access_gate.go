package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// GateState is the resolution state of the access gate.
type GateState string

const (
	GateUnchecked       GateState = "unchecked"
	GateChecking        GateState = "checking"
	GateAuthenticated   GateState = "authenticated"
	GateUnauthenticated GateState = "unauthenticated"
)

// gateTransitions defines the allowed state machine moves.
var gateTransitions = map[GateState][]GateState{
	GateUnchecked:       {GateChecking, GateAuthenticated},
	GateChecking:        {GateAuthenticated, GateUnauthenticated},
	GateAuthenticated:   {GateUnauthenticated},
	GateUnauthenticated: {GateChecking, GateAuthenticated},
}

// CanTransitionTo reports whether moving from s to next is valid.
func (s GateState) CanTransitionTo(next GateState) bool {
	for _, allowed := range gateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AccessGate decides whether protected content may be served based on
// the resolved session state.
//
// A cached user is trusted optimistically: the gate reports
// authenticated immediately and verifies the session in the background,
// so a transient loading flag never blocks a user that is already
// cached. Only the uncached path blocks on a full check.
type AccessGate struct {
	store *SessionStore
	log   zerolog.Logger

	// bg is the context for background verification, tied to the
	// process lifetime rather than any single request.
	bg context.Context

	mu       sync.Mutex
	state    GateState
	verified bool
}

// NewAccessGate builds a gate over the store. bg bounds background
// verifications.
func NewAccessGate(bg context.Context, store *SessionStore, log zerolog.Logger) *AccessGate {
	return &AccessGate{store: store, log: log, bg: bg, state: GateUnchecked}
}

// State returns the gate's last resolved state.
func (g *AccessGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve determines whether the current session may see protected
// content. GateUnauthenticated means the caller must redirect to the
// login entry point; protected content is never served in that state.
func (g *AccessGate) Resolve(ctx context.Context) GateState {
	if state := g.store.State(); state.User != nil {
		// Optimistic path: render immediately, verify silently once.
		g.transition(GateAuthenticated)
		g.verifyInBackground()
		return GateAuthenticated
	}

	g.mu.Lock()
	verified := g.verified
	g.mu.Unlock()

	if !verified {
		g.transition(GateChecking)
		g.store.CheckAuth(ctx)
		g.markVerified()
	}

	if state := g.store.State(); state.User != nil {
		g.transition(GateAuthenticated)
		return GateAuthenticated
	}
	g.transition(GateUnauthenticated)
	return GateUnauthenticated
}

// verifyInBackground runs a single silent CheckAuth for the gate's
// lifetime. The render path is never blocked on it.
func (g *AccessGate) verifyInBackground() {
	g.mu.Lock()
	if g.verified {
		g.mu.Unlock()
		return
	}
	g.verified = true
	g.mu.Unlock()

	go func() {
		g.store.CheckAuth(g.bg)
		if state := g.store.State(); state.User == nil {
			g.log.Info().Msg("background verification invalidated cached session")
			g.transition(GateUnauthenticated)
		}
	}()
}

func (g *AccessGate) markVerified() {
	g.mu.Lock()
	g.verified = true
	g.mu.Unlock()
}

func (g *AccessGate) transition(next GateState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == next {
		return
	}
	if !g.state.CanTransitionTo(next) {
		g.log.Debug().Str("from", string(g.state)).Str("to", string(next)).Msg("gate transition skipped")
		return
	}
	g.state = next
}
