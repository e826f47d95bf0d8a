package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/sneakvault/internal/authz"
	"github.com/atinyakov/sneakvault/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type mockLoader struct {
	LoadFunc func(ctx context.Context, token string) (*models.Session, error)
}

func (m *mockLoader) Load(ctx context.Context, token string) (*models.Session, error) {
	return m.LoadFunc(ctx, token)
}

func TestWithSession_NoCookie(t *testing.T) {
	loader := &mockLoader{LoadFunc: func(context.Context, string) (*models.Session, error) {
		t.Fatal("loader must not be called without a cookie")
		return nil, nil
	}}
	dummy := &dummyHandler{}
	h := WithSession(loader, zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !dummy.called {
		t.Fatal("expected next handler to be called")
	}
	sess := SessionFromContext(dummy.ctx)
	if sess.IsAuthenticated() || sess.Token != "" {
		t.Errorf("expected anonymous session, got %+v", sess)
	}
}

func TestWithSession_ValidCookie(t *testing.T) {
	id := int64(9)
	loader := &mockLoader{LoadFunc: func(_ context.Context, token string) (*models.Session, error) {
		if token != "abc" {
			t.Errorf("unexpected token %q", token)
		}
		return &models.Session{Token: "abc", UserID: &id, Username: "alice", Role: models.RoleUser}, nil
	}}
	dummy := &dummyHandler{}
	h := WithSession(loader, zap.NewNop())(dummy)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "abc"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	sess := SessionFromContext(dummy.ctx)
	if sess.Username != "alice" || !sess.IsAuthenticated() {
		t.Errorf("expected alice session, got %+v", sess)
	}
}

func TestWithSession_StaleCookieCleared(t *testing.T) {
	loader := &mockLoader{LoadFunc: func(context.Context, string) (*models.Session, error) {
		return nil, nil
	}}
	dummy := &dummyHandler{}
	h := WithSession(loader, zap.NewNop())(dummy)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "gone"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("expected cookie to be cleared, got %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestWithSession_LoaderErrorIsAnonymous(t *testing.T) {
	loader := &mockLoader{LoadFunc: func(context.Context, string) (*models.Session, error) {
		return nil, errors.New("db down")
	}}
	dummy := &dummyHandler{}
	h := WithSession(loader, zap.NewNop())(dummy)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "abc"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !dummy.called || SessionFromContext(dummy.ctx).IsAuthenticated() {
		t.Error("expected anonymous request to proceed")
	}
}

func TestRequireRole(t *testing.T) {
	id := int64(1)
	tests := []struct {
		name       string
		sess       *models.Session
		wantCalled bool
		wantStatus int
	}{
		{"anonymous", &models.Session{}, false, http.StatusSeeOther},
		{"user", &models.Session{UserID: &id, Role: models.RoleUser}, false, http.StatusSeeOther},
		{"admin", &models.Session{UserID: &id, Role: models.RoleAdmin}, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := RequireRole(authz.NewGuard(), models.RoleAdmin, zap.NewNop())(dummy)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req = req.WithContext(ContextWithSession(req.Context(), tt.sess))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if dummy.called != tt.wantCalled {
				t.Errorf("called = %v; want %v", dummy.called, tt.wantCalled)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if !tt.wantCalled && rec.Header().Get("Location") != "/login" {
				t.Errorf("Location = %q; want /login", rec.Header().Get("Location"))
			}
			if rec.Header().Get("Cache-Control") == "" {
				t.Error("expected no-store headers")
			}
		})
	}
}

func TestRequireGuest(t *testing.T) {
	id := int64(1)
	admin := &models.Session{UserID: &id, Role: models.RoleAdmin}

	dummy := &dummyHandler{}
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(ContextWithSession(req.Context(), admin))
	rec := httptest.NewRecorder()
	RequireGuest(dummy).ServeHTTP(rec, req)

	if dummy.called {
		t.Error("logged-in user must not reach the login page")
	}
	if rec.Header().Get("Location") != "/admin" {
		t.Errorf("Location = %q; want /admin", rec.Header().Get("Location"))
	}
}

func TestWithRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)

	h := WithRequestLogging(zap.New(core))(&dummyHandler{})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search", nil))

	out := buf.String()
	for _, want := range []string{`"path":"/search"`, `"status":200`, `"bytes":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}

func TestSessionFromContext_Empty(t *testing.T) {
	if s := SessionFromContext(context.Background()); s == nil {
		t.Fatal("SessionFromContext must never return nil")
	}
}
