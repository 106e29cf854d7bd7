package repository

import (
	"context"
	"time"

	"docshelf/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record.
	// The caller provides all fields including ID and UploadedAt.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListVisible returns documents matching the visibility filter,
	// ordered stably by upload time.
	ListVisible(ctx context.Context, f VisibilityFilter) ([]model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// CountByOwner returns the number of documents owned by ownerID.
	CountByOwner(ctx context.Context, ownerID string) (int, error)

	// CountDistinctCategoriesByOwner returns how many distinct categories
	// the owner's documents use. Documents without a category do not count.
	CountDistinctCategoriesByOwner(ctx context.Context, ownerID string) (int, error)

	// CountRecentByOwner returns the number of documents owned by ownerID
	// uploaded at or after the given cutoff.
	CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error)

	// CountPrivateByOwner returns the number of private documents owned by ownerID.
	CountPrivateByOwner(ctx context.Context, ownerID string) (int, error)
}

// VisibilityFilter restricts a document listing. RequesterID is mandatory:
// the base predicate is always "owned by requester OR not private".
// Search and CategoryName are optional refinements, ANDed on top.
type VisibilityFilter struct {
	RequesterID  string
	Search       string
	CategoryName string
}
