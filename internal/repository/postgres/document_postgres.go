package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"docshelf/internal/model"
	"docshelf/internal/repository"
)

const documentColumns = "id, title, description, filename, storage_path, size, content_type, uploaded_at, category_id, owner_id, is_private"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var categoryID sql.NullString
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Filename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&d.UploadedAt,
		&categoryID,
		&d.OwnerID,
		&d.IsPrivate,
	); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		d.CategoryID = &categoryID.String
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, title, description, filename, storage_path, size, content_type, uploaded_at, category_id, owner_id, is_private)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		doc.Filename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		doc.UploadedAt,
		doc.CategoryID,
		doc.OwnerID,
		doc.IsPrivate,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// likeEscaper quotes ILIKE metacharacters so user search input matches
// literally instead of acting as a wildcard pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListVisible returns documents visible to the requester, optionally narrowed
// by a case-insensitive title/description search and an exact category name.
// Ordering is stable by upload time, ties broken by id. The categories join is
// only present when a category name filter is set; the two query shapes are
// otherwise identical.
func (r *DocumentPostgres) ListVisible(ctx context.Context, f repository.VisibilityFilter) ([]model.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT d.id, d.title, d.description, d.filename, d.storage_path, d.size, d.content_type, d.uploaded_at, d.category_id, d.owner_id, d.is_private
		FROM documents d`)

	args := []any{f.RequesterID}
	if f.CategoryName != "" {
		sb.WriteString(` JOIN categories c ON c.id = d.category_id`)
	}
	sb.WriteString(` WHERE (d.owner_id = $1 OR d.is_private = false)`)

	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (d.title ILIKE $%d OR d.description ILIKE $%d)`, n, n)
	}
	if f.CategoryName != "" {
		args = append(args, f.CategoryName)
		fmt.Fprintf(&sb, ` AND c.name = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY d.uploaded_at, d.id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Existence is the service's concern; a missing row is not an error here.
	_, _ = res.RowsAffected()
	return nil
}

// CountByOwner returns the total number of documents owned by ownerID.
func (r *DocumentPostgres) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	return r.count(ctx, q, ownerID)
}

// CountDistinctCategoriesByOwner counts the distinct categories the owner's documents use.
func (r *DocumentPostgres) CountDistinctCategoriesByOwner(ctx context.Context, ownerID string) (int, error) {
	const q = `SELECT COUNT(DISTINCT category_id) FROM documents WHERE owner_id = $1 AND category_id IS NOT NULL`
	return r.count(ctx, q, ownerID)
}

// CountRecentByOwner counts the owner's documents uploaded at or after the cutoff.
func (r *DocumentPostgres) CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND uploaded_at >= $2`
	return r.count(ctx, q, ownerID, since)
}

// CountPrivateByOwner counts the owner's private documents.
func (r *DocumentPostgres) CountPrivateByOwner(ctx context.Context, ownerID string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND is_private = true`
	return r.count(ctx, q, ownerID)
}

func (r *DocumentPostgres) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
