package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/sneakvault/internal/models"
)

// PostgresStatsRepository computes dashboard counters.
type PostgresStatsRepository struct {
	DB *sql.DB
}

// NewPostgresStatsRepository creates a repository using db.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{DB: db}
}

// Dashboard returns every counter in one round trip.
func (r *PostgresStatsRepository) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM sneakers),
		       (SELECT COUNT(*) FROM categories),
		       (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM comments),
		       (SELECT COUNT(*) FROM comments WHERE is_moderated = FALSE)
	`).Scan(&st.Sneakers, &st.Categories, &st.Users, &st.Comments, &st.PendingComments)
	if err != nil {
		return st, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}
