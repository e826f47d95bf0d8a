package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// bcrypt ignores everything past 72 bytes
		_ = validate.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= 72
		})
	})
	return validate
}

// Validate checks v against its `validate` struct tags and returns one
// message per failing field, in declaration order.
//
// Each field may carry a `label` tag (the display name used in default
// messages) and a `msg` tag overriding the message. A msg tag either holds
// one message for every rule, or rule=message pairs separated by "|":
//
//	Content string `validate:"required,min=10" label:"Comment" msg:"required=Comment content is required."`
func Validate(v any) Errors {
	var out Errors

	err := instance().Struct(v)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add(err.Error())
		return out
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for _, fe := range verrs {
		field, _ := t.FieldByName(fe.StructField())
		out.Add(message(field, fe))
	}
	return out
}

func message(field reflect.StructField, fe validator.FieldError) string {
	if custom := field.Tag.Get("msg"); custom != "" {
		if m, ok := pick(custom, fe.Tag()); ok {
			return m
		}
	}

	label := field.Tag.Get("label")
	if label == "" {
		label = fe.StructField()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters.", label, fe.Param())
	case "bcrypt":
		return fmt.Sprintf("%s must not exceed 72 bytes.", label)
	case "email":
		return "Please enter a valid email address."
	case "eqfield":
		return fmt.Sprintf("%s does not match.", label)
	case "oneof", "gt":
		return fmt.Sprintf("Please select a valid %s.", strings.ToLower(label))
	case "gte":
		return fmt.Sprintf("%s must not be negative.", label)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format.", label)
	}
	return fmt.Sprintf("%s is invalid.", label)
}

// pick finds the message for tag in a msg struct tag.
func pick(custom, tag string) (string, bool) {
	if !strings.Contains(custom, "=") {
		return custom, true
	}
	for _, part := range strings.Split(custom, "|") {
		rule, m, ok := strings.Cut(part, "=")
		if ok && strings.TrimSpace(rule) == tag {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}
