// Package validation turns raw form values into typed input and collects
// every problem with a submission as a user-facing message.
package validation

import "strings"

// Errors is an ordered list of user-facing validation messages.
type Errors []string

// Error joins the messages so Errors can travel as an error value.
func (e Errors) Error() string {
	return strings.Join(e, " ")
}

// Add appends msg unless it is already present.
func (e *Errors) Add(msg string) {
	for _, m := range *e {
		if m == msg {
			return
		}
	}
	*e = append(*e, msg)
}

// Merge appends every message of other.
func (e *Errors) Merge(other Errors) {
	for _, m := range other {
		e.Add(m)
	}
}

// Empty reports whether no problems were collected.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Err returns e as an error, or nil when it is empty.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}
