// Package apperr defines the error taxonomy shared by the campaign pipeline,
// the extraction service and the HTTP layers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates a malformed or contradictory request. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BlockedError indicates extraction was permanently denied, including after proxy escalation.
type BlockedError struct {
	URL string
	// Signal is the soft-block phrase or probe status that triggered the block.
	Signal string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Access to %s is blocked.", e.URL)
}

// TransportError indicates a network failure reaching the extraction service,
// the browser or the LLM provider.
type TransportError struct {
	// Target names the collaborator (extraction, browser, openai, anthropic, ...).
	Target     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedCompletionError indicates a structured-mode completion that did not parse.
type MalformedCompletionError struct {
	Intent string
	// Content is the raw completion text, kept for debug logging.
	Content string
	Err     error
}

func (e *MalformedCompletionError) Error() string {
	return fmt.Sprintf("malformed %s completion: %v", e.Intent, e.Err)
}

func (e *MalformedCompletionError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates a missing credential or resource. Fatal at startup.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error: %s is required", e.Key)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error to the HTTP status returned to callers.
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		blockedErr    *BlockedError
		transportErr  *TransportError
		malformedErr  *MalformedCompletionError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &blockedErr):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr), errors.As(err, &malformedErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable code for an error.
func Code(err error) string {
	var (
		validationErr *ValidationError
		blockedErr    *BlockedError
		transportErr  *TransportError
		malformedErr  *MalformedCompletionError
		configErr     *ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &blockedErr):
		return "blocked"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &malformedErr):
		return "malformed_completion"
	case errors.As(err, &configErr):
		return "configuration_error"
	default:
		return "internal_error"
	}
}
