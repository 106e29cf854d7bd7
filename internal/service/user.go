package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docshelf/internal/model"
	"docshelf/internal/repository"
	"docshelf/internal/storage"
)

var ErrUsernameRequired = errors.New("username is required")

// UserService defines the use cases for managing users.
// Authentication is out of scope; this covers the owner records documents
// reference and the cascade on their removal.
type UserService interface {
	Create(ctx context.Context, username, email string) (*model.User, error)

	// Delete removes a user and every document the user owns. Blob cleanup
	// for the removed documents is best effort.
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo  repository.UserRepository
	store storage.Storage
	log   *zap.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, store storage.Storage, log *zap.Logger) UserService {
	return &userService{repo: repo, store: store, log: log}
}

func (s *userService) Create(ctx context.Context, username, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	u := &model.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    strings.TrimSpace(email),
	}
	return s.repo.Create(ctx, u)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	// Records are already gone; losing a blob here only leaves an orphan object.
	for _, p := range paths {
		if err := s.store.Delete(ctx, p); err != nil {
			s.log.Error("blob cleanup failed after user delete",
				zap.String("storage_path", p),
				zap.Error(err))
		}
	}

	s.log.Info("user deleted",
		zap.String("user_id", id),
		zap.Int("documents_removed", len(paths)))
	return nil
}
