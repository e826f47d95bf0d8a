package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/sneakvault/internal/middleware"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// fakeCatalog implements CatalogReader and NavSource.
type fakeCatalog struct {
	page       models.SneakerPage
	category   *models.Category
	sneaker    *models.Sneaker
	comments   []models.Comment
	categories []models.Category
	err        error

	gotQuery service.SearchQuery
	gotPage  int
}

func (f *fakeCatalog) List(_ context.Context, page int) (models.SneakerPage, error) {
	f.gotPage = page
	return f.page, f.err
}

func (f *fakeCatalog) ByCategory(_ context.Context, _ int64, page int) (*models.Category, models.SneakerPage, error) {
	f.gotPage = page
	return f.category, f.page, f.err
}

func (f *fakeCatalog) Search(_ context.Context, q service.SearchQuery) (models.SneakerPage, error) {
	f.gotQuery = q
	return f.page, f.err
}

func (f *fakeCatalog) Sneaker(_ context.Context, _ int64) (*models.Sneaker, []models.Comment, error) {
	return f.sneaker, f.comments, f.err
}

func (f *fakeCatalog) Categories(_ context.Context) ([]models.Category, error) {
	return f.categories, nil
}

type fakeImages struct{}

func (fakeImages) URL(rel string) string {
	if rel == "" {
		return "/static/placeholder.svg"
	}
	return "/" + rel
}

// fakeComments implements CommentSubmitter and CommentModerator.
type fakeComments struct {
	err  error
	list service.CommentList

	gotSession *models.Session
	gotInput   service.CommentInput
	called     string
}

func (f *fakeComments) Submit(_ context.Context, sess *models.Session, _ int64, in service.CommentInput) (int64, error) {
	f.gotSession = sess
	f.gotInput = in
	return 1, f.err
}

func (f *fakeComments) List(_ context.Context) (service.CommentList, error) { return f.list, f.err }
func (f *fakeComments) Delete(_ context.Context, _ int64) error {
	f.called = "delete"
	return f.err
}
func (f *fakeComments) Disemvowel(_ context.Context, _ int64) error {
	f.called = "disemvowel"
	return f.err
}
func (f *fakeComments) Approve(_ context.Context, _ int64) error {
	f.called = "approve"
	return f.err
}
func (f *fakeComments) Restore(_ context.Context, _ int64) error {
	f.called = "restore"
	return f.err
}

type fakeCaptchas struct {
	session *models.Session
	err     error
}

func (f *fakeCaptchas) IssueCaptcha(_ context.Context, sess *models.Session) (*models.Session, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if f.session != nil {
		return f.session, "ABC234", nil
	}
	return sess, "ABC234", nil
}

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	user *models.User
	err  error

	gotRegister service.RegisterInput
}

func (f *fakeAuthService) Register(_ context.Context, in service.RegisterInput) (*models.User, error) {
	f.gotRegister = in
	return f.user, f.err
}

func (f *fakeAuthService) Authenticate(_ context.Context, _, _ string) (*models.User, error) {
	return f.user, f.err
}

type fakeSessions struct {
	loginErr  error
	loggedOut bool
}

func (f *fakeSessions) Login(_ context.Context, _ *models.Session, user *models.User) (*models.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	id := user.ID
	return &models.Session{Token: "rotated", UserID: &id, Username: user.Username, Role: user.Role, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeSessions) Logout(_ context.Context, _ *models.Session) error {
	f.loggedOut = true
	return nil
}

func newTestRenderer(t *testing.T, nav NavSource) *Renderer {
	t.Helper()
	rd, err := NewRenderer(nav, fakeImages{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return rd
}

// withSession attaches sess to the request context the way WithSession does.
func withSession(r *http.Request, sess *models.Session) *http.Request {
	return r.WithContext(middleware.ContextWithSession(r.Context(), sess))
}

// withParams sets chi URL parameters given as name, value pairs.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func adminSession() *models.Session {
	id := int64(1)
	return &models.Session{Token: "tok", UserID: &id, Username: "root", Role: models.RoleAdmin}
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
