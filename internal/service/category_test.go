package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
	"github.com/atinyakov/sneakvault/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCreate_DerivesSlug(t *testing.T) {
	var got *models.Category
	repo := &mockCategoryRepo{CreateFunc: func(_ context.Context, c *models.Category) (int64, error) {
		got = c
		return 1, nil
	}}

	_, err := NewCategoryService(repo).Create(context.Background(), CategoryInput{Name: "Trail Running"})
	require.NoError(t, err)
	assert.Equal(t, "trail-running", got.Slug)
}

func TestCategoryCreate_LongTransliteratedSlug(t *testing.T) {
	var got *models.Category
	repo := &mockCategoryRepo{CreateFunc: func(_ context.Context, c *models.Category) (int64, error) {
		got = c
		return 1, nil
	}}

	_, err := NewCategoryService(repo).Create(context.Background(), CategoryInput{Name: strings.Repeat("鞋", 100)})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Slug)
	assert.LessOrEqual(t, len(got.Slug), 120)
	assert.False(t, strings.HasSuffix(got.Slug, "-"))
}

func TestCategoryCreate_DuplicateSlug(t *testing.T) {
	repo := &mockCategoryRepo{CreateFunc: func(context.Context, *models.Category) (int64, error) {
		return 0, fmt.Errorf("create category: %w", &repository.DuplicateError{Field: "slug"})
	}}

	_, err := NewCategoryService(repo).Create(context.Background(), CategoryInput{Name: "Running", Slug: "running"})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, validation.Errors{"A category with this slug already exists."}, errs)
}

func TestCategoryCreate_NameRequired(t *testing.T) {
	_, err := NewCategoryService(&mockCategoryRepo{}).Create(context.Background(), CategoryInput{})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, validation.Errors{"Category name is required."}, errs)
}

func TestCategoryDelete(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		repoErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:  "empty category is deleted",
			count: 0,
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:  "category in use is kept",
			count: 2,
			check: func(t *testing.T, err error) {
				var inUse *CategoryInUseError
				require.ErrorAs(t, err, &inUse)
				assert.Equal(t, 2, inUse.Count)
				assert.Contains(t, inUse.Message(), "It has 2 sneaker(s)")
			},
		},
		{
			name:    "missing category",
			repoErr: repository.ErrNotFound,
			check:   func(t *testing.T, err error) { assert.True(t, errors.Is(err, ErrNotFound)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCategoryRepo{DeleteFunc: func(context.Context, int64) (int, error) {
				return tt.count, tt.repoErr
			}}
			tt.check(t, NewCategoryService(repo).Delete(context.Background(), 1))
		})
	}
}
