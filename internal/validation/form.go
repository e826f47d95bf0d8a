package validation

import (
	"net/url"
	"strconv"
	"strings"
)

// Form wraps submitted values with typed, trimmed accessors.
type Form struct {
	values url.Values
}

// NewForm wraps values. A nil map behaves as an empty form.
func NewForm(values url.Values) Form {
	return Form{values: values}
}

// String returns the trimmed value of field, or "".
func (f Form) String(field string) string {
	return strings.TrimSpace(f.values.Get(field))
}

// Int parses field as a base-10 integer; nil when absent or malformed.
func (f Form) Int(field string) *int64 {
	v := f.String(field)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Float parses field as a decimal number; nil when absent or malformed.
func (f Form) Float(field string) *float64 {
	v := f.String(field)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Bool reports whether a checkbox-like field was ticked.
func (f Form) Bool(field string) bool {
	switch strings.ToLower(f.String(field)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// IntOr returns the parsed integer or def.
func (f Form) IntOr(field string, def int) int {
	if n := f.Int(field); n != nil {
		return int(*n)
	}
	return def
}
