package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/sneakvault/internal/models"
)

// PostgresCommentRepository stores comments in PostgreSQL.
type PostgresCommentRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCommentRepository creates a repository using db.
func NewPostgresCommentRepository(db *sql.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{DB: db}
}

// Create inserts c and returns its id. A missing sneaker yields ErrForeignKey.
func (r *PostgresCommentRepository) Create(ctx context.Context, c *models.Comment) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO comments (sneaker_id, user_id, author_name, content) VALUES ($1, $2, $3, $4) RETURNING id
	`, c.SneakerID, c.UserID, c.AuthorName, c.Content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create comment: %w", mapError(err))
	}
	return id, nil
}

// Visible returns the unmoderated comments of a sneaker, newest first.
func (r *PostgresCommentRepository) Visible(ctx context.Context, sneakerID int64) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, sneaker_id, user_id, author_name, content, created_at
		  FROM comments
		 WHERE sneaker_id = $1 AND is_moderated = FALSE
		 ORDER BY created_at DESC, id DESC
	`, sneakerID)
	if err != nil {
		return nil, fmt.Errorf("visible comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var (
			c      models.Comment
			userID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.SneakerID, &userID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if userID.Valid {
			c.UserID = &userID.Int64
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return comments, nil
}

// List returns every comment for moderation, newest first, with the
// sneaker name and the account username when there is one.
func (r *PostgresCommentRepository) List(ctx context.Context) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.sneaker_id, c.user_id, c.author_name, c.content,
		       COALESCE(c.original_content, ''), c.is_moderated, c.created_at,
		       s.name, COALESCE(u.username, '')
		  FROM comments c
		  JOIN sneakers s ON s.id = c.sneaker_id
		  LEFT JOIN users u ON u.id = c.user_id
		 ORDER BY c.created_at DESC, c.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var (
			c      models.Comment
			userID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.SneakerID, &userID, &c.AuthorName, &c.Content,
			&c.OriginalContent, &c.IsModerated, &c.CreatedAt, &c.SneakerName, &c.Username); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if userID.Valid {
			c.UserID = &userID.Int64
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return comments, nil
}

// Get fetches a comment by id.
func (r *PostgresCommentRepository) Get(ctx context.Context, id int64) (*models.Comment, error) {
	var (
		c      models.Comment
		userID sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, sneaker_id, user_id, author_name, content, COALESCE(original_content, ''), is_moderated, created_at
		  FROM comments WHERE id = $1
	`, id).Scan(&c.ID, &c.SneakerID, &userID, &c.AuthorName, &c.Content, &c.OriginalContent, &c.IsModerated, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	return &c, nil
}

// Delete removes a comment permanently.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOne(res)
}

// Rewrite replaces the content with its moderated form and hides the
// comment. The text from before the first rewrite is kept in
// original_content.
func (r *PostgresCommentRepository) Rewrite(ctx context.Context, id int64, content string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE comments
		   SET original_content = COALESCE(original_content, content),
		       content = $2,
		       is_moderated = TRUE
		 WHERE id = $1
	`, id, content)
	if err != nil {
		return fmt.Errorf("rewrite comment: %w", err)
	}
	return expectOne(res)
}

// Approve makes a comment visible again without touching its content.
func (r *PostgresCommentRepository) Approve(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE comments SET is_moderated = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("approve comment: %w", err)
	}
	return expectOne(res)
}

// Restore puts the original text back and makes the comment visible.
// Comments that were never rewritten yield ErrNotFound.
func (r *PostgresCommentRepository) Restore(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE comments
		   SET content = original_content,
		       original_content = NULL,
		       is_moderated = FALSE
		 WHERE id = $1 AND original_content IS NOT NULL
	`, id)
	if err != nil {
		return fmt.Errorf("restore comment: %w", err)
	}
	return expectOne(res)
}
