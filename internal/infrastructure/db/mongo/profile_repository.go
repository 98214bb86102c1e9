package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
)

const profileCollection = "user_profiles"

// namespaceNotFound is the server error code MongoDB returns when a
// command targets a collection that has never been provisioned. It is
// this backend's rendition of the missing-schema condition.
const namespaceNotFound = 26

// ProfileRepository persists profile rows keyed by account id (the
// document _id is the account id itself, so a duplicate insert is
// exactly the trigger-vs-client race).
type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(profileCollection)}
}

// FindByAccountID retrieves the profile row for an account.
func (r *ProfileRepository) FindByAccountID(ctx context.Context, accountID string) (*domain.User, error) {
	var user domain.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": accountID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		if isNamespaceMissing(err) {
			return nil, domain.ErrSchemaMissing
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &user, nil
}

// Insert creates a profile row. A concurrent creation by the
// server-side trigger surfaces as domain.ErrConflict.
func (r *ProfileRepository) Insert(ctx context.Context, profile *domain.User) (*domain.User, error) {
	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		if isNamespaceMissing(err) {
			return nil, domain.ErrSchemaMissing
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return profile.Clone(), nil
}

// Update applies a partial patch to the profile row. Nil patch fields
// are left untouched.
func (r *ProfileRepository) Update(ctx context.Context, accountID string, patch ports.ProfilePatch) error {
	set := bson.M{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.UpdatedAt != nil {
		set["updated_at"] = *patch.UpdatedAt
	}
	if len(set) == 0 {
		return nil
	}

	res, err := r.coll.UpdateByID(ctx, accountID, bson.M{"$set": set})
	if err != nil {
		if isNamespaceMissing(err) {
			return domain.ErrSchemaMissing
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// isNamespaceMissing reports whether err is the server telling us the
// profile collection does not exist.
func isNamespaceMissing(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(namespaceNotFound)
}
