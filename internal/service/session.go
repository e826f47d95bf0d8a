package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/sneakvault/internal/captcha"
	"github.com/atinyakov/sneakvault/internal/models"
)

// SessionRepository defines the persistence operations of browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	// Get returns ErrNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string, now time.Time) (*models.Session, error)
	Rotate(ctx context.Context, oldToken string, next *models.Session) error
	Delete(ctx context.Context, token string) error
	SetCaptcha(ctx context.Context, token, code string) error
	// TakeCaptcha atomically returns and clears the pending code.
	TakeCaptcha(ctx context.Context, token string) (string, error)
}

// SessionService creates, resumes and ends browser sessions and binds
// CAPTCHA codes to them.
type SessionService struct {
	repo SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionService constructs a SessionService whose sessions live for ttl.
func NewSessionService(repo SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{repo: repo, ttl: ttl, now: time.Now}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Load resolves token into a live session, or nil when the token is
// unknown or expired.
func (s *SessionService) Load(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.repo.Get(ctx, token, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Start creates an anonymous session.
func (s *SessionService) Start(ctx context.Context) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &models.Session{Token: token, ExpiresAt: now.Add(s.ttl), CreatedAt: now}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Login binds user to a fresh session token and discards current, so a
// token seen before login is never valid afterwards.
func (s *SessionService) Login(ctx context.Context, current *models.Session, user *models.User) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	id := user.ID
	next := &models.Session{
		Token:     token,
		UserID:    &id,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	old := ""
	if current != nil {
		old = current.Token
	}
	if err := s.repo.Rotate(ctx, old, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Logout ends the session.
func (s *SessionService) Logout(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.Token == "" {
		return nil
	}
	return s.repo.Delete(ctx, sess.Token)
}

// IssueCaptcha stores a new code in the session, replacing any pending
// one. Visitors without a stored session get one; the returned session is
// the one holding the code and may differ from sess.
func (s *SessionService) IssueCaptcha(ctx context.Context, sess *models.Session) (*models.Session, string, error) {
	code, err := captcha.NewCode()
	if err != nil {
		return nil, "", err
	}

	if sess != nil && sess.Token != "" {
		err := s.repo.SetCaptcha(ctx, sess.Token, code)
		if err == nil {
			return sess, code, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
	}

	fresh, err := s.Start(ctx)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.SetCaptcha(ctx, fresh.Token, code); err != nil {
		return nil, "", err
	}
	return fresh, code, nil
}

// ConsumeCaptcha returns the pending code and invalidates it. Sessions
// without a code yield "".
func (s *SessionService) ConsumeCaptcha(ctx context.Context, sess *models.Session) (string, error) {
	if sess == nil || sess.Token == "" {
		return "", nil
	}
	return s.repo.TakeCaptcha(ctx, sess.Token)
}
