package http

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/atinyakov/sneakvault/internal/middleware"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

//go:embed templates static
var assets embed.FS

// NavSource lists the categories shown in the site navigation.
type NavSource interface {
	Categories(ctx context.Context) ([]models.Category, error)
}

// ImageLocator turns a stored image path into a public URL.
type ImageLocator interface {
	URL(rel string) string
}

// View is the data passed to every page template.
type View struct {
	Title      string
	Path       string
	Session    *models.Session
	Categories []models.Category
	Flash      string
	Errors     validation.Errors
	// Form holds submitted values to refill a rejected form.
	Form map[string]string
	Data any
}

// Value returns the submitted value of field, or "" when none.
func (v *View) Value(field string) string {
	return v.Form[field]
}

// Renderer executes the embedded page templates inside the base layout.
type Renderer struct {
	pages map[string]*template.Template
	nav   NavSource
	log   *zap.Logger
}

// NewRenderer parses every page once. images resolves sneaker pictures for
// the templates.
func NewRenderer(nav NavSource, images ImageLocator, log *zap.Logger) (*Renderer, error) {
	base, err := template.New("base").Funcs(funcs(images)).ParseFS(assets, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(assets, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(assets, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}

	return &Renderer{pages: pages, nav: nav, log: log}, nil
}

// Render writes page with status. The layout fields of v (path, session,
// navigation) are filled in here.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, v *View) {
	t, ok := rd.pages[page]
	if !ok {
		serverError(w, rd.log, fmt.Errorf("unknown page %q", page))
		return
	}

	if v == nil {
		v = &View{}
	}
	v.Path = r.URL.Path
	v.Session = middleware.SessionFromContext(r.Context())
	if v.Categories == nil {
		cats, err := rd.nav.Categories(r.Context())
		if err != nil {
			rd.log.Error("failed to load navigation", zap.Error(err))
		}
		v.Categories = cats
	}

	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, "base", v); err != nil {
		serverError(w, rd.log, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func funcs(images ImageLocator) template.FuncMap {
	return template.FuncMap{
		"image": images.URL,
		"nl2br": nl2br,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"isodate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"price": func(p *float64) string {
			if p == nil {
				return ""
			}
			return fmt.Sprintf("$%.2f", *p)
		},
		"excerpt": excerpt,
		"pages": func(p models.Page) []int {
			n := make([]int, p.TotalPages())
			for i := range n {
				n[i] = i + 1
			}
			return n
		},
	}
}

// nl2br escapes s and turns line breaks into <br> elements.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>\n"))
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
