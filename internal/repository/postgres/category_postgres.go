package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docshelf/internal/model"
	"docshelf/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

// Create inserts a new category row and returns the stored record.
func (r *CategoryPostgres) Create(ctx context.Context, cat *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, description
	`
	var out model.Category
	err := r.db.QueryRowContext(ctx, q, cat.ID, cat.Name, cat.Description).
		Scan(&out.ID, &out.Name, &out.Description)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single category by its ID.
func (r *CategoryPostgres) FindByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `SELECT id, name, description FROM categories WHERE id = $1`
	var c model.Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryPostgres) List(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, name, description FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a category. Documents referencing it keep existing with
// their category cleared; both statements run in one transaction so the
// set-null rule cannot be half-applied.
func (r *CategoryPostgres) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE documents SET category_id = NULL WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("clear document categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	return tx.Commit()
}
