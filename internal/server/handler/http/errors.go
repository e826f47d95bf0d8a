package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/sneakvault/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const genericError = "Something went wrong. Please try again later."

// serverError logs err and answers with a generic 500 page.
func serverError(w http.ResponseWriter, log *zap.Logger, err error) {
	log.Error("request failed", zap.Error(err))
	http.Error(w, genericError, http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// formErrors extracts the user-facing messages from err. Messages joined
// with an internal failure are returned too, and the failure is logged.
func formErrors(log *zap.Logger, err error) (validation.Errors, bool) {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil, false
	}
	if _, plain := err.(validation.Errors); !plain {
		log.Error("form submission failed", zap.Error(err))
	}
	return errs, true
}

// queryID reads a positive integer id from the query string.
func queryID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id, err == nil && id > 0
}

// paramID reads the {id} route parameter.
func paramID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func queryPage(r *http.Request) int {
	return validation.NewForm(r.URL.Query()).IntOr("page", 1)
}

// flash returns the message of the first flag present in the query.
func flash(r *http.Request, flags [][2]string) string {
	q := r.URL.Query()
	for _, f := range flags {
		if q.Has(f[0]) {
			return f[1]
		}
	}
	return ""
}
