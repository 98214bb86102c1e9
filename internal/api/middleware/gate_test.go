package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
	"github.com/shopnow/auth-agent/internal/core/service"
)

// stubIdentity is a minimal provider: one scripted session, no errors.
type stubIdentity struct {
	session string
	changes chan ports.SessionChange
}

func (s *stubIdentity) CreateAccount(context.Context, string, string) (string, error) {
	return s.session, nil
}

func (s *stubIdentity) IssueSession(context.Context, string, string) (string, error) {
	return s.session, nil
}

func (s *stubIdentity) ActiveSession(context.Context) (string, bool, error) {
	return s.session, s.session != "", nil
}

func (s *stubIdentity) RevokeSession(context.Context) error { return nil }

func (s *stubIdentity) SessionChanges() <-chan ports.SessionChange { return s.changes }

type stubProfiles struct {
	rows map[string]*domain.User
}

func (s *stubProfiles) FindByAccountID(_ context.Context, accountID string) (*domain.User, error) {
	u, ok := s.rows[accountID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return u.Clone(), nil
}

func (s *stubProfiles) Insert(_ context.Context, profile *domain.User) (*domain.User, error) {
	s.rows[profile.ID] = profile.Clone()
	return profile.Clone(), nil
}

func (s *stubProfiles) Update(context.Context, string, ports.ProfilePatch) error { return nil }

type stubState struct{ user *domain.User }

func (s *stubState) Load(context.Context) (*domain.User, error) { return s.user.Clone(), nil }

func (s *stubState) Save(_ context.Context, u *domain.User) error {
	s.user = u.Clone()
	return nil
}

func newGatedStore(t *testing.T, session string, rows map[string]*domain.User) (*service.SessionStore, *service.AccessGate) {
	t.Helper()
	if rows == nil {
		rows = make(map[string]*domain.User)
	}
	provider := &stubIdentity{session: session, changes: make(chan ports.SessionChange, 1)}
	store := service.NewSessionStore(context.Background(), provider, &stubProfiles{rows: rows}, &stubState{}, zerolog.Nop(),
		service.WithTriggerGrace(0), service.WithConfirmDelay(0))
	gate := service.NewAccessGate(context.Background(), store, zerolog.Nop())
	return store, gate
}

func request(t *testing.T, e *echo.Echo, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newGatedEcho(gate *service.AccessGate, store *service.SessionStore) *echo.Echo {
	e := echo.New()
	protected := e.Group("", Gate(gate, store, "/login"))
	protected.GET("/account", func(c echo.Context) error {
		user, _ := c.Get("gate.user").(*domain.User)
		if user == nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "gate user missing")
		}
		return c.JSON(http.StatusOK, user)
	})
	return e
}

func TestGate_AuthenticatedPassesThrough(t *testing.T) {
	rows := map[string]*domain.User{
		"acct-1": {ID: "acct-1", Email: "bob@example.com", Role: domain.RoleBuyer},
	}
	store, gate := newGatedStore(t, "acct-1", rows)
	e := newGatedEcho(gate, store)

	rec := request(t, e, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGate_UnauthenticatedBrowserRedirects(t *testing.T) {
	store, gate := newGatedStore(t, "", nil)
	e := newGatedEcho(gate, store)

	rec := request(t, e, "")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGate_UnauthenticatedAPIGets401(t *testing.T) {
	store, gate := newGatedStore(t, "", nil)
	e := newGatedEcho(gate, store)

	rec := request(t, e, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	rows := map[string]*domain.User{
		"acct-1": {ID: "acct-1", Email: "bob@example.com", Role: domain.RoleBuyer},
	}
	store, gate := newGatedStore(t, "acct-1", rows)

	e := echo.New()
	protected := e.Group("", Gate(gate, store, "/login"))
	protected.GET("/sell", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole(store, string(domain.RoleSeller), string(domain.RoleBoth)))

	req := httptest.NewRequest(http.MethodGet, "/sell", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer should be forbidden from /sell, got %d", rec.Code)
	}
}
