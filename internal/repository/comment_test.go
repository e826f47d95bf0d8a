package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/lib/pq"
)

func setupCommentMock(t *testing.T) (*PostgresCommentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresCommentRepository(db), mock, func() { db.Close() }
}

func TestCreateComment_Anonymous(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments (sneaker_id, user_id, author_name, content)`)).
		WithArgs(int64(1), nil, "guest", "nice colourway!").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	id, err := repo.Create(context.Background(), &models.Comment{SneakerID: 1, AuthorName: "guest", Content: "nice colourway!"})
	if err != nil || id != 10 {
		t.Fatalf("Create = (%d, %v); want (10, nil)", id, err)
	}
}

func TestCreateComment_MissingSneaker(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments`)).
		WillReturnError(&pq.Error{Code: pgForeignKeyViolation})

	_, err := repo.Create(context.Background(), &models.Comment{SneakerID: 404, AuthorName: "x", Content: "0123456789"})
	if !errors.Is(err, ErrForeignKey) {
		t.Errorf("expected ErrForeignKey, got %v", err)
	}
}

func TestVisibleComments(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	uid := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE sneaker_id = $1 AND is_moderated = FALSE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sneaker_id", "user_id", "author_name", "content", "created_at"}).
			AddRow(int64(2), int64(1), uid, "alice", "second comment", time.Now()).
			AddRow(int64(1), int64(1), nil, "guest", "first comment", time.Now()))

	got, err := repo.Visible(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].UserID == nil || *got[0].UserID != uid || got[1].UserID != nil {
		t.Errorf("unexpected comments: %+v", got)
	}
}

func TestRewriteKeepsOriginal(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`SET original_content = COALESCE(original_content, content)`)).
		WithArgs(int64(5), "hll wrld").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Rewrite(context.Background(), 5, "hll wrld"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRestore_NothingToRestore(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND original_content IS NOT NULL`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Restore(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveAndDelete(t *testing.T) {
	repo, mock, cleanup := setupCommentMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comments SET is_moderated = FALSE WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM comments WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnError(errors.New("exec fail"))

	if err := repo.Approve(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), 1); err == nil {
		t.Error("expected delete error")
	}
}
