package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/sneakvault/internal/models"
)

const sneakerColumns = `
	s.id, s.name, s.brand, s.colorway, s.release_date, s.retail_price,
	s.description, s.image_path, s.category_id, c.name, s.sku,
	s.created_at, s.updated_at`

const sneakerFrom = `FROM sneakers s JOIN categories c ON c.id = s.category_id`

// SneakerFilter narrows catalog queries. Zero values match everything.
type SneakerFilter struct {
	CategoryID *int64
	// Keyword is matched case-insensitively as a substring of name, brand,
	// description, colorway and sku.
	Keyword string
}

// SortColumns maps dashboard sort keys to SQL columns.
var SortColumns = map[string]string{
	"name":       "s.name",
	"created_at": "s.created_at",
	"updated_at": "s.updated_at",
}

// PostgresSneakerRepository stores sneakers in PostgreSQL.
type PostgresSneakerRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSneakerRepository creates a repository using db.
func NewPostgresSneakerRepository(db *sql.DB) *PostgresSneakerRepository {
	return &PostgresSneakerRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSneaker(row rowScanner) (models.Sneaker, error) {
	var (
		s                    models.Sneaker
		colorway, image, sku sql.NullString
		releaseDate          sql.NullTime
		retailPrice          sql.NullFloat64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Brand, &colorway, &releaseDate, &retailPrice,
		&s.Description, &image, &s.CategoryID, &s.CategoryName, &sku,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.Colorway = colorway.String
	s.ImagePath = image.String
	s.SKU = sku.String
	if releaseDate.Valid {
		t := releaseDate.Time
		s.ReleaseDate = &t
	}
	if retailPrice.Valid {
		p := retailPrice.Float64
		s.RetailPrice = &p
	}
	return s, nil
}

// where builds the WHERE clause for f, numbering placeholders from 1.
func (f SneakerFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("s.category_id = $%d", len(args)))
	}
	if f.Keyword != "" {
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(s.name ILIKE $%[1]d OR s.brand ILIKE $%[1]d OR s.description ILIKE $%[1]d OR s.colorway ILIKE $%[1]d OR s.sku ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns one page of sneakers matching f, newest first, together
// with the total number of matches.
func (r *PostgresSneakerRepository) Find(ctx context.Context, f SneakerFilter, limit, offset int) ([]models.Sneaker, int, error) {
	where, args := f.where()

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sneakers s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sneakers: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY s.created_at DESC, s.id DESC LIMIT $%d OFFSET $%d`,
		sneakerColumns, sneakerFrom, where, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find sneakers: %w", err)
	}
	defer rows.Close()

	sneakers, err := collectSneakers(rows)
	if err != nil {
		return nil, 0, err
	}
	return sneakers, total, nil
}

// AdminList returns every sneaker ordered by sort descending. Unknown sort
// keys fall back to created_at.
func (r *PostgresSneakerRepository) AdminList(ctx context.Context, sort string) ([]models.Sneaker, error) {
	col, ok := SortColumns[sort]
	if !ok {
		col = SortColumns["created_at"]
	}

	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s %s ORDER BY %s DESC, s.id DESC`, sneakerColumns, sneakerFrom, col))
	if err != nil {
		return nil, fmt.Errorf("list sneakers: %w", err)
	}
	defer rows.Close()

	return collectSneakers(rows)
}

func collectSneakers(rows *sql.Rows) ([]models.Sneaker, error) {
	var sneakers []models.Sneaker
	for rows.Next() {
		s, err := scanSneaker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sneakers = append(sneakers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return sneakers, nil
}

// Get fetches a sneaker by id.
func (r *PostgresSneakerRepository) Get(ctx context.Context, id int64) (*models.Sneaker, error) {
	row := r.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s %s WHERE s.id = $1`, sneakerColumns, sneakerFrom), id)
	s, err := scanSneaker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sneaker: %w", err)
	}
	return &s, nil
}

// Create inserts s and returns its id. A missing category yields ErrForeignKey.
func (r *PostgresSneakerRepository) Create(ctx context.Context, s *models.Sneaker) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO sneakers (name, brand, colorway, release_date, retail_price,
		                      description, image_path, category_id, sku)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.Name, s.Brand, nullString(s.Colorway), s.ReleaseDate, s.RetailPrice,
		s.Description, nullString(s.ImagePath), s.CategoryID, nullString(s.SKU)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create sneaker: %w", mapError(err))
	}
	return id, nil
}

// Update overwrites every editable column of s and bumps updated_at.
func (r *PostgresSneakerRepository) Update(ctx context.Context, s *models.Sneaker) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE sneakers
		   SET name = $2, brand = $3, colorway = $4, release_date = $5, retail_price = $6,
		       description = $7, image_path = $8, category_id = $9, sku = $10,
		       updated_at = now()
		 WHERE id = $1
	`, s.ID, s.Name, s.Brand, nullString(s.Colorway), s.ReleaseDate, s.RetailPrice,
		s.Description, nullString(s.ImagePath), s.CategoryID, nullString(s.SKU))
	if err != nil {
		return fmt.Errorf("update sneaker: %w", mapError(err))
	}
	return expectOne(res)
}

// Delete removes the sneaker and, through the foreign key, its comments.
// It returns the image path the row referenced.
func (r *PostgresSneakerRepository) Delete(ctx context.Context, id int64) (string, error) {
	var image sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM sneakers WHERE id = $1 RETURNING image_path`, id).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete sneaker: %w", err)
	}
	return image.String, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
