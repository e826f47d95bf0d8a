package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/sneakvault/internal/models"
)

// PostgresCategoryRepository stores categories in PostgreSQL.
type PostgresCategoryRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresCategoryRepository creates a repository using db.
func NewPostgresCategoryRepository(db *sql.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{DB: db}
}

// List returns every category by name with the number of sneakers in each.
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, COALESCE(c.description, ''), c.created_at, COUNT(s.id)
		  FROM categories c
		  LEFT JOIN sneakers s ON s.category_id = c.id
		 GROUP BY c.id
		 ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.SneakerCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return categories, nil
}

// Get fetches a category by id.
func (r *PostgresCategoryRepository) Get(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), created_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// Create inserts c and returns its id. A taken slug yields *DuplicateError.
func (r *PostgresCategoryRepository) Create(ctx context.Context, c *models.Category) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id
	`, c.Name, c.Slug, nullString(c.Description)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", mapError(err))
	}
	return id, nil
}

// Update overwrites name, slug and description of c.
func (r *PostgresCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE categories SET name = $2, slug = $3, description = $4 WHERE id = $1
	`, c.ID, c.Name, c.Slug, nullString(c.Description))
	if err != nil {
		return fmt.Errorf("update category: %w", mapError(err))
	}
	return expectOne(res)
}

// Delete removes the category only when no sneaker references it. It
// returns the number of referencing sneakers; when that is above zero the
// row is kept. The count and the delete run in one transaction holding a
// lock on the category row.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, id int64) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock category: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sneakers WHERE category_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sneakers: %w", err)
	}
	if count > 0 {
		return count, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete category: %w", mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return 0, nil
}
