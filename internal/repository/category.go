package repository

import (
	"context"

	"docshelf/internal/model"
)

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, cat *model.Category) (*model.Category, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)

	// Delete removes a category. Referencing documents are not deleted;
	// their category_id is cleared in the same transaction.
	Delete(ctx context.Context, id string) error
}
