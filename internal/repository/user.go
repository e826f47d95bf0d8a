package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/sneakvault/internal/models"
)

// PostgresUserRepository stores accounts in PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository using db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create inserts u and returns its id. Uniqueness of username and email is
// left to the table constraints; a violation yields *DuplicateError.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id
	`, u.Username, u.Email, string(u.PasswordHash), string(u.Role)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", mapError(err))
	}
	return id, nil
}

// GetByUsername fetches the account used for login.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

// Get fetches an account by id.
func (r *PostgresUserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u    models.User
		hash string
		role string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &hash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.PasswordHash = []byte(hash)
	u.Role = models.Role(role)
	return &u, nil
}

// List returns every account, newest first, with its comment count.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.role, u.created_at, COUNT(c.id)
		  FROM users u
		  LEFT JOIN comments c ON c.user_id = u.id
		 GROUP BY u.id
		 ORDER BY u.created_at DESC, u.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			u    models.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &role, &u.CreatedAt, &u.CommentCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		u.Role = models.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// Update overwrites username, email and role. The password hash is only
// replaced when u.PasswordHash is not empty.
func (r *PostgresUserRepository) Update(ctx context.Context, u *models.User) error {
	var (
		res sql.Result
		err error
	)
	if len(u.PasswordHash) > 0 {
		res, err = r.DB.ExecContext(ctx, `
			UPDATE users SET username = $2, email = $3, role = $4, password_hash = $5 WHERE id = $1
		`, u.ID, u.Username, u.Email, string(u.Role), string(u.PasswordHash))
	} else {
		res, err = r.DB.ExecContext(ctx, `
			UPDATE users SET username = $2, email = $3, role = $4 WHERE id = $1
		`, u.ID, u.Username, u.Email, string(u.Role))
	}
	if err != nil {
		return fmt.Errorf("update user: %w", mapError(err))
	}
	return expectOne(res)
}

// Delete removes an account. Its comments stay, detached from the user.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}
