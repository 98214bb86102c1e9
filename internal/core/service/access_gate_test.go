package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

func TestGateState_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to GateState
		want     bool
	}{
		{GateUnchecked, GateChecking, true},
		{GateUnchecked, GateAuthenticated, true},
		{GateUnchecked, GateUnauthenticated, false},
		{GateChecking, GateAuthenticated, true},
		{GateChecking, GateUnauthenticated, true},
		{GateAuthenticated, GateUnauthenticated, true},
		{GateAuthenticated, GateChecking, false},
		{GateUnauthenticated, GateAuthenticated, true},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.want, got)
		}
	}
}

func TestAccessGate_UncachedBlocksAndDenies(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend, nil)
	gate := NewAccessGate(context.Background(), store, zerolog.Nop())

	if state := gate.Resolve(context.Background()); state != GateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", state)
	}
	if gate.State() != GateUnauthenticated {
		t.Fatalf("gate did not settle in unauthenticated")
	}
}

func TestAccessGate_UncachedResolvesActiveSession(t *testing.T) {
	backend := newFakeBackend()
	backend.session = "acct-1"
	backend.seedProfile(&domain.User{ID: "acct-1", Email: "bob@example.com", Role: domain.RoleBuyer})
	store := newTestStore(t, backend, nil)
	gate := NewAccessGate(context.Background(), store, zerolog.Nop())

	if state := gate.Resolve(context.Background()); state != GateAuthenticated {
		t.Fatalf("expected authenticated, got %s", state)
	}
	if store.State().User == nil {
		t.Fatalf("blocking resolve did not populate the cache")
	}
}

func TestAccessGate_CachedUserDoesNotBlock(t *testing.T) {
	backend := newFakeBackend()
	backend.session = "acct-1"
	backend.seedProfile(&domain.User{ID: "acct-1", Email: "bob@example.com", Role: domain.RoleBuyer})
	state := &memState{user: &domain.User{ID: "acct-1", Email: "bob@example.com", Role: domain.RoleBuyer}}
	store := newTestStore(t, backend, state)

	// Stall the background verification; the optimistic path must not
	// wait for it.
	release := make(chan struct{})
	backend.onFind = func() { <-release }

	gate := NewAccessGate(context.Background(), store, zerolog.Nop())

	resolved := make(chan GateState, 1)
	go func() { resolved <- gate.Resolve(context.Background()) }()

	select {
	case got := <-resolved:
		if got != GateAuthenticated {
			t.Fatalf("expected optimistic authenticated, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cached-user resolve blocked on verification")
	}

	close(release)
	waitFor(t, func() bool { return !store.State().Loading })
}

func TestAccessGate_BackgroundVerificationInvalidates(t *testing.T) {
	backend := newFakeBackend()
	// No active session remotely, but a user survived in the persisted
	// cache.
	state := &memState{user: &domain.User{ID: "acct-9", Email: "old@example.com", Role: domain.RoleBuyer}}
	store := newTestStore(t, backend, state)
	gate := NewAccessGate(context.Background(), store, zerolog.Nop())

	if got := gate.Resolve(context.Background()); got != GateAuthenticated {
		t.Fatalf("first resolve should be optimistic, got %s", got)
	}

	// The silent verification discovers the dead session and the next
	// resolve denies access.
	waitFor(t, func() bool { return store.State().User == nil })
	waitFor(t, func() bool { return gate.Resolve(context.Background()) == GateUnauthenticated })
}
