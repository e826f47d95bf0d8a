package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/sneakvault/internal/models"
)

// PostgresSessionRepository keeps browser sessions in PostgreSQL.
type PostgresSessionRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresSessionRepository creates a repository using db.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// Create stores a new session row.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, s.Token, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}
	return nil
}

// Get returns the live session for token joined with its user, or
// ErrNotFound when it is unknown or expired.
func (r *PostgresSessionRepository) Get(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var (
		s        models.Session
		userID   sql.NullInt64
		username sql.NullString
		role     sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, u.username, u.role, s.expires_at, s.created_at
		  FROM sessions s
		  LEFT JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1 AND s.expires_at > $2
	`, token, now).Scan(&s.Token, &userID, &username, &role, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if userID.Valid {
		s.UserID = &userID.Int64
		s.Username = username.String
		s.Role = models.Role(role.String)
	}
	return &s, nil
}

// Rotate replaces the session oldToken with next in one transaction.
// An empty oldToken only inserts next.
func (r *PostgresSessionRepository) Rotate(ctx context.Context, oldToken string, next *models.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if oldToken != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, oldToken); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, next.Token, next.UserID, next.ExpiresAt); err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes a session. Unknown tokens are ignored.
func (r *PostgresSessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetCaptcha stores code as the pending challenge of the session,
// replacing any earlier one.
func (r *PostgresSessionRepository) SetCaptcha(ctx context.Context, token, code string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE sessions SET captcha = $2 WHERE token = $1`, token, code)
	if err != nil {
		return fmt.Errorf("set captcha: %w", err)
	}
	return expectOne(res)
}

// TakeCaptcha reads and clears the pending challenge in one statement, so
// a code can be checked at most once. It returns "" when none is pending.
func (r *PostgresSessionRepository) TakeCaptcha(ctx context.Context, token string) (string, error) {
	var code sql.NullString
	err := r.DB.QueryRowContext(ctx, `
		WITH prev AS (
			SELECT token, captcha FROM sessions WHERE token = $1 FOR UPDATE
		)
		UPDATE sessions s
		   SET captcha = NULL
		  FROM prev
		 WHERE s.token = prev.token
		RETURNING prev.captcha
	`, token).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("take captcha: %w", err)
	}
	return code.String, nil
}
