package ports

import (
	"context"
	"time"

	"github.com/shopnow/auth-agent/internal/core/domain"
)

// ProfilePatch is a partial profile update. Nil fields are left
// untouched by Update.
type ProfilePatch struct {
	Email     *string
	Role      *domain.UserRole
	UpdatedAt *time.Time
}

// ProfileRepository is the durable profile row store, keyed by account
// id. Implementations map their backend's failure modes onto the domain
// taxonomy: domain.ErrProfileNotFound, domain.ErrConflict (duplicate
// insert) and domain.ErrSchemaMissing (store not provisioned).
type ProfileRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*domain.User, error)
	Insert(ctx context.Context, profile *domain.User) (*domain.User, error)
	Update(ctx context.Context, accountID string, patch ProfilePatch) error
}
