// Package repository provides PostgreSQL persistence for the catalog:
// sneakers, categories, users, comments, sessions and dashboard counters.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForeignKey is returned when a referenced row does not exist.
	ErrForeignKey = errors.New("referenced row does not exist")
)

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// mapError converts constraint violations into repository errors and
// leaves everything else untouched.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return &DuplicateError{Field: constraintField(pqErr.Constraint)}
	case pgForeignKeyViolation:
		return ErrForeignKey
	}
	return err
}

// constraintField extracts the column from names like users_email_key.
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.Index(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// escapeLike quotes the LIKE metacharacters of s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
