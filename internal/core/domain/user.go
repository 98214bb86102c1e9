package domain

import "time"

// UserRole describes how an account participates in the marketplace.
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
	RoleBoth   UserRole = "both"
)

// DefaultRole is assigned when no role was chosen, e.g. a profile row
// provisioned by the server-side trigger or the sign-in fallback.
const DefaultRole = RoleBuyer

// Valid reports whether r is one of the known marketplace roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleBoth:
		return true
	}
	return false
}

// ParseRole normalises a raw role string, falling back to DefaultRole
// when the value is empty or unknown.
func ParseRole(s string) UserRole {
	if r := UserRole(s); r.Valid() {
		return r
	}
	return DefaultRole
}

// User is the locally cached view of a profile row. The account id is
// assigned by the identity provider, never by this agent.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Role      UserRole  `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Clone returns a copy so callers can hand out snapshots without
// sharing the cached pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
