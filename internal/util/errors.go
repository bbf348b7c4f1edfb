package util

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired        = errors.New("authentication required")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrModuleLocked        = errors.New("module is locked until the previous module is completed")
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = &NotFoundError{Resource: "user"}
	ErrModuleNotFound      = &NotFoundError{Resource: "learning module"}
	ErrAnalysisNotFound    = &NotFoundError{Resource: "analysis"}
	ErrNoVerdict           = errors.New("no detection service returned a verdict")
	ErrProviderUnavailable = errors.New("external service is not configured")
)

// ValidationError is malformed or missing client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(*NotFoundError)
	return ok && t.Resource == e.Resource && (t.ID == "" || t.ID == e.ID)
}

// WithID returns a copy of the sentinel naming one missing record.
func (e *NotFoundError) WithID(id string) error {
	return &NotFoundError{Resource: e.Resource, ID: id}
}

// StorageError wraps a persistence failure. It is never shown to clients verbatim.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
