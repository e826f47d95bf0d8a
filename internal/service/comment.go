package service

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/sneakvault/internal/captcha"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
	"github.com/atinyakov/sneakvault/internal/validation"
)

// CommentRepository defines the persistence operations on comments.
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) (int64, error)
	List(ctx context.Context) ([]models.Comment, error)
	Get(ctx context.Context, id int64) (*models.Comment, error)
	Delete(ctx context.Context, id int64) error
	// Rewrite stores moderated content, keeping the first original.
	Rewrite(ctx context.Context, id int64, content string) error
	Approve(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

// CaptchaConsumer hands out the pending CAPTCHA code of a session exactly once.
type CaptchaConsumer interface {
	ConsumeCaptcha(ctx context.Context, sess *models.Session) (string, error)
}

// CommentInput is the public comment form.
type CommentInput struct {
	AuthorName string `validate:"required,max=100" label:"Name"`
	Content    string `validate:"required,min=10" label:"Comment" msg:"required=Comment content is required."`
	Captcha    string
}

// CommentList is the moderation queue with its counters.
type CommentList struct {
	Comments  []models.Comment
	Total     int
	Pending   int
	Moderated int
}

// CommentService implements comment submission and moderation.
type CommentService struct {
	repo     CommentRepository
	captchas CaptchaConsumer
}

// NewCommentService constructs a CommentService.
func NewCommentService(repo CommentRepository, captchas CaptchaConsumer) *CommentService {
	return &CommentService{repo: repo, captchas: captchas}
}

// Submit adds a comment to sneaker sneakerID. The session's CAPTCHA code is
// consumed by every attempt; a wrong answer is reported on its own. Logged
// in users comment under their username.
func (s *CommentService) Submit(ctx context.Context, sess *models.Session, sneakerID int64, in CommentInput) (int64, error) {
	expected, err := s.captchas.ConsumeCaptcha(ctx, sess)
	if err != nil {
		return 0, err
	}
	if !captcha.Verify(expected, in.Captcha) {
		return 0, validation.Errors{"Invalid CAPTCHA code. Please try again."}
	}

	if sess.IsAuthenticated() {
		in.AuthorName = sess.Username
	}
	if errs := validation.Validate(in); !errs.Empty() {
		return 0, errs
	}

	c := &models.Comment{
		SneakerID:  sneakerID,
		UserID:     sess.UserID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
	}
	id, err := s.repo.Create(ctx, c)
	if errors.Is(err, repository.ErrForeignKey) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every comment with moderation counters.
func (s *CommentService) List(ctx context.Context) (CommentList, error) {
	comments, err := s.repo.List(ctx)
	if err != nil {
		return CommentList{}, err
	}
	list := CommentList{Comments: comments, Total: len(comments)}
	for _, c := range comments {
		if c.IsModerated {
			list.Moderated++
		} else {
			list.Pending++
		}
	}
	return list, nil
}

// Delete removes a comment permanently.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Disemvowel strips the vowels from a comment and hides it. The original
// text stays available to Restore.
func (s *CommentService) Disemvowel(ctx context.Context, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Rewrite(ctx, id, Disemvowel(c.Content))
}

// Approve makes a comment visible again.
func (s *CommentService) Approve(ctx context.Context, id int64) error {
	return s.repo.Approve(ctx, id)
}

// Restore brings back the text from before moderation.
func (s *CommentService) Restore(ctx context.Context, id int64) error {
	return s.repo.Restore(ctx, id)
}

// Disemvowel removes a, e, i, o and u in either case from text.
func Disemvowel(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			return -1
		}
		return r
	}, text)
}
