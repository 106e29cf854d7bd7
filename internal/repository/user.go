package repository

import (
	"context"

	"docshelf/internal/model"
)

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Delete removes a user and, in the same transaction, every document the
	// user owns. It returns the storage paths of the deleted documents so the
	// caller can clean up blobs, and sql.ErrNoRows if the user does not exist.
	Delete(ctx context.Context, id string) ([]string, error)
}
