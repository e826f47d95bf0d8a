package service

import (
	"context"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
)

// StatsRepository computes the dashboard counters.
type StatsRepository interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
}

// SneakerLister lists sneakers for the back office.
type SneakerLister interface {
	AdminList(ctx context.Context, sort string) ([]models.Sneaker, error)
}

// Dashboard is the admin landing page content.
type Dashboard struct {
	Stats    models.DashboardStats
	Sneakers []models.Sneaker
	Sort     string
}

// DashboardService assembles the admin landing page.
type DashboardService struct {
	stats    StatsRepository
	sneakers SneakerLister
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(stats StatsRepository, sneakers SneakerLister) *DashboardService {
	return &DashboardService{stats: stats, sneakers: sneakers}
}

// Load returns counters and every sneaker ordered by sort, descending.
// Unknown sort keys fall back to created_at.
func (s *DashboardService) Load(ctx context.Context, sort string) (Dashboard, error) {
	if _, ok := repository.SortColumns[sort]; !ok {
		sort = "created_at"
	}

	st, err := s.stats.Dashboard(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	sneakers, err := s.sneakers.AdminList(ctx, sort)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Stats: st, Sneakers: sneakers, Sort: sort}, nil
}
