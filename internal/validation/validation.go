// Package validation wraps go-playground/validator and reports failures as
// a field -> message map keyed by the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Error carries one message per offending field.
type Error struct {
	fields map[string]string
}

func NewError(fields map[string]string) *Error {
	return &Error{fields: fields}
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", k, e.fields[k]))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a copy of the field -> message map.
func (e *Error) Fields() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = msgForTag(fe)
	}
	return &Error{fields: fields}
}

// Var validates a single value against a tag expression such as
// "required,min=3". It returns the message for the first failing rule.
func Var(value any, tag string) (string, bool) {
	err := validate.Var(value, tag)
	if err == nil {
		return "", true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return msgForTag(verrs[0]), false
	}
	return "is invalid", false
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "numeric", "number":
		return "must be numeric"
	case "number|uuid":
		return "must be a numeric id or UUID"
	case "hexcolor":
		return "must be a hex colour such as #1a2b3c"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
