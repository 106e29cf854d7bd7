package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docshelf/internal/model"
	"docshelf/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
		RETURNING id, username, email
	`
	var out model.User
	err := r.db.QueryRowContext(ctx, q, u.ID, u.Username, u.Email).
		Scan(&out.ID, &out.Username, &out.Email)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, username, email FROM users WHERE id = $1`
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a user and all documents the user owns in one transaction.
// The owned documents' storage paths are returned for blob cleanup.
// Returns sql.ErrNoRows if the user does not exist.
func (r *UserPostgres) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `DELETE FROM documents WHERE owner_id = $1 RETURNING storage_path`, id)
	if err != nil {
		return nil, fmt.Errorf("delete owned documents: %w", err)
	}
	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return paths, nil
}
