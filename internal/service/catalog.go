package service

import (
	"context"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
)

// SneakerFinder is the read side of SneakerRepository.
type SneakerFinder interface {
	Find(ctx context.Context, f repository.SneakerFilter, limit, offset int) ([]models.Sneaker, int, error)
	Get(ctx context.Context, id int64) (*models.Sneaker, error)
}

// CategoryReader is the read side of CategoryRepository.
type CategoryReader interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
}

// CommentReader lists what the public may see of a sneaker's comments.
type CommentReader interface {
	Visible(ctx context.Context, sneakerID int64) ([]models.Comment, error)
}

// CatalogService implements the public, read-only pages.
type CatalogService struct {
	sneakers   SneakerFinder
	categories CategoryReader
	comments   CommentReader
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(sneakers SneakerFinder, categories CategoryReader, comments CommentReader) *CatalogService {
	return &CatalogService{sneakers: sneakers, categories: categories, comments: comments}
}

// SearchQuery holds the search form. A query with neither a keyword nor a
// category is not run.
type SearchQuery struct {
	Keyword    string
	CategoryID *int64
	Page       int
}

// Active reports whether the query has any criteria.
func (q SearchQuery) Active() bool {
	return q.Keyword != "" || (q.CategoryID != nil && *q.CategoryID > 0)
}

func (s *CatalogService) find(ctx context.Context, f repository.SneakerFilter, page int) (models.SneakerPage, error) {
	p := models.NewPage(page)
	sneakers, total, err := s.sneakers.Find(ctx, f, p.Size, p.Offset())
	if err != nil {
		return models.SneakerPage{}, err
	}
	p.Total = total
	return models.SneakerPage{Page: p, Sneakers: sneakers}, nil
}

// List returns one page of the whole catalog, newest first.
func (s *CatalogService) List(ctx context.Context, page int) (models.SneakerPage, error) {
	return s.find(ctx, repository.SneakerFilter{}, page)
}

// ByCategory returns the category and one page of its sneakers.
func (s *CatalogService) ByCategory(ctx context.Context, id int64, page int) (*models.Category, models.SneakerPage, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, models.SneakerPage{}, err
	}
	res, err := s.find(ctx, repository.SneakerFilter{CategoryID: &id}, page)
	if err != nil {
		return nil, models.SneakerPage{}, err
	}
	return c, res, nil
}

// Search runs q. An inactive query returns an empty page without touching
// the database.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) (models.SneakerPage, error) {
	if !q.Active() {
		return models.SneakerPage{Page: models.NewPage(q.Page)}, nil
	}
	f := repository.SneakerFilter{Keyword: q.Keyword}
	if q.CategoryID != nil && *q.CategoryID > 0 {
		f.CategoryID = q.CategoryID
	}
	return s.find(ctx, f, q.Page)
}

// Sneaker returns one sneaker with its visible comments, newest first.
func (s *CatalogService) Sneaker(ctx context.Context, id int64) (*models.Sneaker, []models.Comment, error) {
	sn, err := s.sneakers.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.Visible(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sn, comments, nil
}

// Categories returns every category for navigation and filters.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}
