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
)

var ErrCategoryNameRequired = errors.New("category name is required")

// CategoryService defines the use cases for managing categories.
type CategoryService interface {
	Create(ctx context.Context, name, description string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)

	// Delete removes a category; documents referencing it keep existing with
	// their category cleared.
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	repo repository.CategoryRepository
	log  *zap.Logger
}

// NewCategoryService constructs a new CategoryService.
func NewCategoryService(repo repository.CategoryRepository, log *zap.Logger) CategoryService {
	return &categoryService{repo: repo, log: log}
}

func (s *categoryService) Create(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	cat := &model.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	}
	return s.repo.Create(ctx, cat)
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("category deleted", zap.String("category_id", id))
	return nil
}
