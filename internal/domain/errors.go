package domain

import (
	"errors"
	"fmt"
)

// Error codes for different failure scenarios
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeStorage             = "STORAGE_ERROR"
	ErrCodeClassifierArtifacts = "CLASSIFIER_UNAVAILABLE"
	ErrCodeAdvisoryOffline     = "ADVISORY_UNAVAILABLE"
	ErrCodeAdvisoryParse       = "ADVISORY_PARSE_ERROR"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUserExists is returned when registering a username that is taken.
var ErrUserExists = errors.New("user already exists")

// ValidationError represents malformed or missing submission input.
// It is rejected before classification; no record is written.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// StorageError reports a persistence failure after a successful
// classification. It is surfaced distinctly so callers know the
// verdict was computed but not saved.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps a persistence failure with its operation name
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// ClassifierUnavailableError reports that the trained artifacts could
// not be loaded at startup. It triggers the rule-based fallback and is
// never surfaced to end users.
type ClassifierUnavailableError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ClassifierUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classifier unavailable: %s", e.Reason)
}

// Unwrap returns the underlying error
func (e *ClassifierUnavailableError) Unwrap() error {
	return e.Err
}

// Advisory failure sentinels. Both collapse to a fixed response at the
// gateway boundary; they exist so diagnostics can tell "offline" from
// "malformed reply" from "never attempted".
var (
	ErrAdvisoryOffline = errors.New("advisory backend not configured or unreachable")
	ErrAdvisoryParse   = errors.New("advisory reply could not be parsed")
)
