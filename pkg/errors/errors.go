package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindTransientStore
	KindConfiguration
)

// AppError represents an application error
type AppError struct {
	Kind    Kind              `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation builds a field-level validation error. Fields maps a request
// field name to the reason it was rejected.
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

func ValidationField(field, reason string) *AppError {
	return Validation(map[string]string{field: reason})
}

func Conflict(message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: message,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// TransientStore wraps a store/transport failure the caller may retry for
// read operations. Writes must not be retried without an idempotency key.
func TransientStore(err error) *AppError {
	return &AppError{
		Kind:    KindTransientStore,
		Message: "storage temporarily unavailable",
		Err:     err,
	}
}

// Configuration marks a fatal startup misconfiguration.
func Configuration(message string, err error) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Message: message,
		Err:     err,
	}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
