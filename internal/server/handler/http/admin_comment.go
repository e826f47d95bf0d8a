package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentModerator defines the moderation operations.
type CommentModerator interface {
	List(ctx context.Context) (service.CommentList, error)
	Delete(ctx context.Context, id int64) error
	Disemvowel(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

// AdminCommentHandler serves the moderation queue.
type AdminCommentHandler struct {
	Comments CommentModerator
	View     *Renderer
	Log      *zap.Logger
}

var commentFlash = [][2]string{
	{"deleted", "Comment deleted successfully!"},
	{"disemvoweled", "Comment disemvoweled successfully!"},
	{"approved", "Comment approved!"},
	{"restored", "Comment restored!"},
}

// List shows every comment, moderated or not, with counters.
func (h *AdminCommentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Comments.List(r.Context())
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	h.View.Render(w, r, http.StatusOK, "admin_comments", &View{
		Title: "Moderate Comments",
		Flash: flash(r, commentFlash),
		Data:  list,
	})
}

// Moderate applies the {action} route parameter to the {id} comment.
func (h *AdminCommentHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin/comments")
		return
	}

	var (
		apply func(context.Context, int64) error
		done  string
	)
	switch action := chi.URLParam(r, "action"); action {
	case "delete":
		apply, done = h.Comments.Delete, "deleted"
	case "disemvowel":
		apply, done = h.Comments.Disemvowel, "disemvoweled"
	case "approve":
		apply, done = h.Comments.Approve, "approved"
	case "restore":
		apply, done = h.Comments.Restore, "restored"
	default:
		http.NotFound(w, r)
		return
	}

	err := apply(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin/comments")
		return
	}
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	h.Log.Info("comment moderated", zap.Int64("comment_id", id), zap.String("result", done))
	redirect(w, r, "/admin/comments?"+done+"=1")
}
