package domain

import "time"

// SessionState is the process-wide auth snapshot consumed by the access
// gate and the UI surface. Loading is true while any identity operation
// is in flight; it is never persisted and always starts false.
type SessionState struct {
	User    *User `json:"user"`
	Loading bool  `json:"loading"`
}

// Account is a credential record at the identity provider. The password
// hash never leaves the provider boundary.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
