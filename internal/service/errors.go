// Package service implements the business rules of the catalog on top of
// repository interfaces: catalog reads, the admin write paths, accounts,
// comments and browser sessions.
package service

import (
	"errors"
	"fmt"

	"github.com/atinyakov/sneakvault/internal/repository"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSelfDelete is returned when an admin tries to delete the account
	// they are logged in with.
	ErrSelfDelete = errors.New("cannot delete own account")
)

// CategoryInUseError rejects deleting a category that still has sneakers.
type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category has %d sneakers", e.Count)
}

// Message is the text shown to the admin.
func (e *CategoryInUseError) Message() string {
	return fmt.Sprintf(
		"Cannot delete category. It has %d sneaker(s) assigned to it. Reassign or delete those sneakers first.",
		e.Count)
}

func duplicateField(err error) (string, bool) {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}
