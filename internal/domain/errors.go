package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every domain failure unwraps to exactly one of them, and
// transports map the class to a status code.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// Quote store failures. They are pointer values, so errors.Is matches the
// specific failure as well as its class.
var (
	ErrEmptyText error = &ValidationError{Field: "text", Message: "quote text is required"}

	ErrDuplicateText error = &Failure{Class: ErrConflict, Subject: "quote", Detail: "a quote with this text already exists"}

	// ErrImportFormat rejects a payload that is neither a quote array nor
	// an object holding a "quotes" array.
	ErrImportFormat error = &ValidationError{Field: "body", Message: "expected a JSON array of quotes or an object with a quotes array"}

	ErrNoQuotesInCategory error = &Failure{Class: ErrNotFound, Subject: "quotes in category"}

	ErrRemoteFetch error = &Failure{Class: ErrUnavailable, Subject: "remote-quotes", Detail: "fetch failed"}
	ErrRemotePost  error = &Failure{Class: ErrUnavailable, Subject: "remote-quotes", Detail: "post failed"}
)

// Failure is a classified error about Subject: the missing entity, the
// conflicting entity, the refused operation or the unavailable service.
type Failure struct {
	Class   error
	Subject string
	Detail  string
}

func (f *Failure) Error() string {
	var msg string

	switch f.Class {
	case ErrNotFound:
		if f.Detail == "" {
			return f.Subject + " not found"
		}

		return fmt.Sprintf("%s %q not found", f.Subject, f.Detail)
	case ErrConflict:
		msg = f.Subject + " conflict"
	default:
		msg = f.Subject + " " + f.Class.Error()
	}

	if f.Detail != "" {
		msg += ": " + f.Detail
	}

	return msg
}

func (f *Failure) Unwrap() error {
	return f.Class
}

// NewNotFoundError reports a missing entity; id may be empty.
func NewNotFoundError(entity, id string) error {
	return &Failure{Class: ErrNotFound, Subject: entity, Detail: id}
}

// NewConflictError reports a state conflict on entity.
func NewConflictError(entity, reason string) error {
	return &Failure{Class: ErrConflict, Subject: entity, Detail: reason}
}

// NewForbiddenError reports an operation refused by policy.
func NewForbiddenError(operation, reason string) error {
	return &Failure{Class: ErrForbidden, Subject: operation, Detail: reason}
}

// NewUnavailableError reports a dependency that cannot serve right now.
func NewUnavailableError(service, reason string) error {
	return &Failure{Class: ErrUnavailable, Subject: service, Detail: reason}
}

// ValidationError rejects input. Field names the offending input when
// known, so transports can report it per field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError rejects field with message.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool   { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
