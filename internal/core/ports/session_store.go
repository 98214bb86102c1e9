package ports

import (
	"context"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// SessionStore is the UI-facing surface of the session state store.
// Operations report failures as return values; none panics across this
// boundary, and Loading settles to false on every path.
type SessionStore interface {
	SignUp(ctx context.Context, email, password string, role domain.UserRole) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context)
	CheckAuth(ctx context.Context)
	UpdateUserRole(ctx context.Context, role domain.UserRole) error
	State() domain.SessionState
}
