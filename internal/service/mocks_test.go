package service

import (
	"context"
	"io"
	"time"

	"github.com/atinyakov/sneakvault/internal/media"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
)

type mockSneakerRepo struct {
	FindFunc      func(ctx context.Context, f repository.SneakerFilter, limit, offset int) ([]models.Sneaker, int, error)
	AdminListFunc func(ctx context.Context, sort string) ([]models.Sneaker, error)
	GetFunc       func(ctx context.Context, id int64) (*models.Sneaker, error)
	CreateFunc    func(ctx context.Context, s *models.Sneaker) (int64, error)
	UpdateFunc    func(ctx context.Context, s *models.Sneaker) error
	DeleteFunc    func(ctx context.Context, id int64) (string, error)
}

func (m *mockSneakerRepo) Find(ctx context.Context, f repository.SneakerFilter, limit, offset int) ([]models.Sneaker, int, error) {
	return m.FindFunc(ctx, f, limit, offset)
}
func (m *mockSneakerRepo) AdminList(ctx context.Context, sort string) ([]models.Sneaker, error) {
	return m.AdminListFunc(ctx, sort)
}
func (m *mockSneakerRepo) Get(ctx context.Context, id int64) (*models.Sneaker, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockSneakerRepo) Create(ctx context.Context, s *models.Sneaker) (int64, error) {
	return m.CreateFunc(ctx, s)
}
func (m *mockSneakerRepo) Update(ctx context.Context, s *models.Sneaker) error {
	return m.UpdateFunc(ctx, s)
}
func (m *mockSneakerRepo) Delete(ctx context.Context, id int64) (string, error) {
	return m.DeleteFunc(ctx, id)
}

type mockImageStore struct {
	PrepareFunc func(r io.Reader) (*media.Upload, error)
	WriteFunc   func(u *media.Upload) (string, error)
	removed     []string
}

func (m *mockImageStore) Prepare(r io.Reader) (*media.Upload, error) {
	if m.PrepareFunc == nil {
		return &media.Upload{}, nil
	}
	return m.PrepareFunc(r)
}
func (m *mockImageStore) Write(u *media.Upload) (string, error) {
	return m.WriteFunc(u)
}
func (m *mockImageStore) Remove(rel string) error {
	if rel != "" {
		m.removed = append(m.removed, rel)
	}
	return nil
}

type mockCategoryRepo struct {
	ListFunc   func(ctx context.Context) ([]models.Category, error)
	GetFunc    func(ctx context.Context, id int64) (*models.Category, error)
	CreateFunc func(ctx context.Context, c *models.Category) (int64, error)
	UpdateFunc func(ctx context.Context, c *models.Category) error
	DeleteFunc func(ctx context.Context, id int64) (int, error)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	return m.ListFunc(ctx)
}
func (m *mockCategoryRepo) Get(ctx context.Context, id int64) (*models.Category, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockCategoryRepo) Create(ctx context.Context, c *models.Category) (int64, error) {
	return m.CreateFunc(ctx, c)
}
func (m *mockCategoryRepo) Update(ctx context.Context, c *models.Category) error {
	return m.UpdateFunc(ctx, c)
}
func (m *mockCategoryRepo) Delete(ctx context.Context, id int64) (int, error) {
	return m.DeleteFunc(ctx, id)
}

type mockUserRepo struct {
	CreateFunc        func(ctx context.Context, u *models.User) (int64, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetFunc           func(ctx context.Context, id int64) (*models.User, error)
	ListFunc          func(ctx context.Context) ([]models.User, error)
	UpdateFunc        func(ctx context.Context, u *models.User) error
	DeleteFunc        func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) (int64, error) {
	return m.CreateFunc(ctx, u)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.GetByUsernameFunc(ctx, username)
}
func (m *mockUserRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	return m.ListFunc(ctx)
}
func (m *mockUserRepo) Update(ctx context.Context, u *models.User) error {
	return m.UpdateFunc(ctx, u)
}
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

type mockCommentRepo struct {
	CreateFunc  func(ctx context.Context, c *models.Comment) (int64, error)
	ListFunc    func(ctx context.Context) ([]models.Comment, error)
	GetFunc     func(ctx context.Context, id int64) (*models.Comment, error)
	DeleteFunc  func(ctx context.Context, id int64) error
	RewriteFunc func(ctx context.Context, id int64, content string) error
	ApproveFunc func(ctx context.Context, id int64) error
	RestoreFunc func(ctx context.Context, id int64) error
}

func (m *mockCommentRepo) Create(ctx context.Context, c *models.Comment) (int64, error) {
	return m.CreateFunc(ctx, c)
}
func (m *mockCommentRepo) List(ctx context.Context) ([]models.Comment, error) {
	return m.ListFunc(ctx)
}
func (m *mockCommentRepo) Get(ctx context.Context, id int64) (*models.Comment, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockCommentRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}
func (m *mockCommentRepo) Rewrite(ctx context.Context, id int64, content string) error {
	return m.RewriteFunc(ctx, id, content)
}
func (m *mockCommentRepo) Approve(ctx context.Context, id int64) error {
	return m.ApproveFunc(ctx, id)
}
func (m *mockCommentRepo) Restore(ctx context.Context, id int64) error {
	return m.RestoreFunc(ctx, id)
}

// memSessions is an in-memory SessionRepository.
type memSessions struct {
	rows     map[string]*models.Session
	captchas map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]*models.Session{}, captchas: map[string]string{}}
}

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	cp := *s
	m.rows[s.Token] = &cp
	return nil
}
func (m *memSessions) Get(_ context.Context, token string, now time.Time) (*models.Session, error) {
	s, ok := m.rows[token]
	if !ok || s.Expired(now) {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}
func (m *memSessions) Rotate(ctx context.Context, oldToken string, next *models.Session) error {
	delete(m.rows, oldToken)
	delete(m.captchas, oldToken)
	return m.Create(ctx, next)
}
func (m *memSessions) Delete(_ context.Context, token string) error {
	delete(m.rows, token)
	delete(m.captchas, token)
	return nil
}
func (m *memSessions) SetCaptcha(_ context.Context, token, code string) error {
	if _, ok := m.rows[token]; !ok {
		return repository.ErrNotFound
	}
	m.captchas[token] = code
	return nil
}
func (m *memSessions) TakeCaptcha(_ context.Context, token string) (string, error) {
	code := m.captchas[token]
	delete(m.captchas, token)
	return code, nil
}
