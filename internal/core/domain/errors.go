package domain

import "errors"

var (
	// ErrInvalidCredentials covers bad email/password pairs on both
	// account creation and session issuance.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountExists is returned when an email is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrProfileNotFound means no profile row exists for the account id.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrConflict signals a duplicate profile insert. It is recovered
	// internally by the update fallback and never surfaces to callers.
	ErrConflict = errors.New("profile already exists")

	// ErrSchemaMissing means the profile store has not been provisioned.
	// Unrecoverable; the store compensates by signing the account out.
	ErrSchemaMissing = errors.New("profile store not provisioned: complete the backend setup")

	// ErrInvalidRole rejects role values outside buyer/seller/both
	// before any remote call is made.
	ErrInvalidRole = errors.New("invalid role")

	// ErrNoActiveSession is returned when a session token is absent,
	// expired, or revoked.
	ErrNoActiveSession = errors.New("no active session")
)
