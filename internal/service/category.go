package service

import (
	"context"
	"strings"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/validation"
	"github.com/gosimple/slug"
)

// CategoryRepository defines the persistence operations on categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (int64, error)
	Update(ctx context.Context, c *models.Category) error
	// Delete returns the number of referencing sneakers and deletes only
	// when it is zero.
	Delete(ctx context.Context, id int64) (int, error)
}

// CategoryInput is the admin category form.
type CategoryInput struct {
	Name        string `validate:"required,max=100" label:"Category name"`
	Slug        string `validate:"max=120" label:"Slug"`
	Description string
}

// CategoryService implements category administration.
type CategoryService struct {
	repo CategoryRepository
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns every category with its sneaker count.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in and stores a new category. An empty slug is derived
// from the name.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (int64, error) {
	c, err := categoryFromInput(in)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return 0, duplicateSlug(err)
	}
	return id, nil
}

// Update validates in and overwrites category id.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) error {
	c, err := categoryFromInput(in)
	if err != nil {
		return err
	}
	c.ID = id
	if err := s.repo.Update(ctx, c); err != nil {
		return duplicateSlug(err)
	}
	return nil
}

// Delete removes a category that no sneaker references. Otherwise it
// returns *CategoryInUseError and the category stays.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &CategoryInUseError{Count: count}
	}
	return nil
}

func categoryFromInput(in CategoryInput) (*models.Category, error) {
	errs := validation.Validate(in)
	if !errs.Empty() {
		return nil, errs
	}

	source := in.Slug
	if source == "" {
		source = in.Name
	}
	// transliteration can outgrow the source; slugs are ASCII
	sl := slug.Make(source)
	if len(sl) > maxSlugLen {
		sl = strings.TrimRight(sl[:maxSlugLen], "-")
	}
	if sl == "" {
		return nil, validation.Errors{"Please enter a valid slug."}
	}
	return &models.Category{Name: in.Name, Slug: sl, Description: in.Description}, nil
}

// maxSlugLen matches the categories.slug column.
const maxSlugLen = 120

func duplicateSlug(err error) error {
	if field, ok := duplicateField(err); ok && field == "slug" {
		return validation.Errors{"A category with this slug already exists."}
	}
	return err
}
