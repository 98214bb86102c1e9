package ports

import "context"

// SessionChange is a session-change notification from the identity
// provider. Active carries whether a session exists after the change;
// AccountID is empty when Active is false.
type SessionChange struct {
	AccountID string
	Active    bool
}

// IdentityProvider is the remote collaborator issuing and verifying
// authentication sessions. Implementations own durable credential
// storage; this agent never sees password hashes.
type IdentityProvider interface {
	// CreateAccount registers new credentials and starts a session for
	// the new account, returning its id. Duplicate emails yield
	// domain.ErrAccountExists.
	CreateAccount(ctx context.Context, email, password string) (string, error)

	// IssueSession verifies credentials and starts a session, returning
	// the account id. Bad credentials yield domain.ErrInvalidCredentials.
	IssueSession(ctx context.Context, email, password string) (string, error)

	// ActiveSession reports the account id of the current session, or
	// ok=false when none is active. Errors are transport failures only;
	// an expired or revoked session is not an error.
	ActiveSession(ctx context.Context) (accountID string, ok bool, err error)

	// RevokeSession ends the current session. Best-effort: callers clear
	// local state even when the returned error is non-nil.
	RevokeSession(ctx context.Context) error

	// SessionChanges exposes the change-notification channel. The
	// channel is owned by the provider and consumed by a single
	// reconciliation loop for the process lifetime.
	SessionChanges() <-chan SessionChange
}
