// Package errors provides the error taxonomy of the form filler.
// Every failure is local to the current step and retryable; callers
// distinguish them with errors.Is against the sentinels below.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Aliases of the standard library helpers for convenience.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinel errors
var (
	// ErrInvalidInput indicates a user action that violates a precondition
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingAnswers indicates assembly was attempted with unresolved fields
	ErrMissingAnswers = errors.New("missing answers")

	// ErrExtractionFailed indicates the document understanding service failed
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrMalformedResponse indicates a service response of unexpected shape
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrBusy indicates an extraction is already in progress
	ErrBusy = errors.New("extraction in progress")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")
)

// ValidationError represents a user action that violates a precondition.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MissingAnswersError names the fields that are not resolved.
type MissingAnswersError struct {
	FieldIDs []string
}

// Error implements the error interface
func (e *MissingAnswersError) Error() string {
	return fmt.Sprintf("missing answers for fields: %s", strings.Join(e.FieldIDs, ", "))
}

// Is implements errors.Is support
func (e *MissingAnswersError) Is(target error) bool {
	return target == ErrMissingAnswers || target == ErrInvalidInput
}

// ExtractionError wraps a failure of the document understanding service.
type ExtractionError struct {
	Mode    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "extraction failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s extraction: %s: %v", e.Mode, msg, e.Err)
	}
	return fmt.Sprintf("%s extraction: %s", e.Mode, msg)
}

// Unwrap implements errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(mode, message string, err error) *ExtractionError {
	return &ExtractionError{Mode: mode, Message: message, Err: err}
}

// MalformedResponseError describes a response that could not be read as the
// expected shape. It is logged and degraded to an empty result, never returned
// to the wizard.
type MalformedResponseError struct {
	Mode    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Mode, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Mode, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// BusyError is returned when a state change is attempted while an extraction
// call for the step is still pending.
type BusyError struct {
	Step string
}

// Error implements the error interface
func (e *BusyError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, ErrBusy)
}

// Is implements errors.Is support
func (e *BusyError) Is(target error) bool {
	return target == ErrBusy || target == ErrInvalidInput
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}
