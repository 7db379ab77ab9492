package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf key so messages match the
// YAML and APP_* names operators actually type.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// ValidationError lists every invalid setting found in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration:\n  " + strings.Join(e.Problems, "\n  ")
}

// Validate checks c. The service refuses to start on any problem.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}

	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, condition(fe))
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", key, condition(fe))
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return key + " must be a URL"
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", key, keyPath(parentPath(fe.Namespace())+"."+fe.Param()))
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", key, keyPath(parentPath(fe.Namespace())+"."+fe.Param()))
	default:
		return fmt.Sprintf("%s fails %q", key, fe.Tag())
	}
}

// keyPath turns "Config.storage.quotes_key" into "storage.quotes_key".
// Struct field names that leak through for cross-field params are folded
// to their koanf spelling.
func keyPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	parts := strings.Split(rest, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}

	return strings.Join(parts, ".")
}

// condition renders a "Field value" param as "parent.field=value".
func condition(fe validator.FieldError) string {
	field, value, _ := strings.Cut(fe.Param(), " ")
	return keyPath(parentPath(fe.Namespace())+"."+field) + "=" + value
}

func parentPath(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i >= 0 {
		return namespace[:i]
	}

	return namespace
}

// snake converts FilterKey to filter_key and leaves snake_case alone.
func snake(s string) string {
	var b strings.Builder

	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}

			r += 'a' - 'A'
		}

		b.WriteRune(r)
	}

	return b.String()
}
