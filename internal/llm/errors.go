package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

// Error categories for LLM operations.
var (
	// ErrRateLimited indicates the provider rejected the call for rate reasons.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidAPIKey indicates the API key is invalid or expired.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrModelUnavailable indicates the model does not exist or is overloaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrContentTooLong indicates the prompt exceeded the model context window.
	ErrContentTooLong = errors.New("content too long")

	// ErrProviderError indicates a general provider error.
	ErrProviderError = errors.New("provider error")

	// ErrOutputTruncated indicates the completion hit its token limit.
	ErrOutputTruncated = errors.New("output truncated")

	// ErrEmptyCompletion indicates the provider returned no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// LLMError is a classified provider failure.
type LLMError struct {
	// Category sentinel (ErrRateLimited, ErrInvalidAPIKey, ...)
	Err error

	// Cause is the original error from the SDK.
	Cause error

	StatusCode int
	Provider   string
	Model      string

	// Category for logs (rate_limit, invalid_key, model_unavailable, ...)
	Category string
}

func (e *LLMError) Error() string {
	msg := e.Category
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the category sentinel and the SDK cause to errors.Is/As.
func (e *LLMError) Unwrap() []error {
	return []error{e.Err, e.Cause}
}

// ClassifyError converts an SDK error into a TransportError carrying an LLMError.
// Context cancellation passes through unchanged so callers can tell a client
// disconnect from a provider failure.
func ClassifyError(err error, provider, model string, statusCode int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	llmErr := &LLMError{
		Cause:      err,
		StatusCode: statusCode,
		Provider:   provider,
		Model:      model,
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		llmErr.Err, llmErr.Category = ErrRateLimited, "rate_limit"
	case http.StatusUnauthorized, http.StatusForbidden:
		llmErr.Err, llmErr.Category = ErrInvalidAPIKey, "invalid_key"
	case http.StatusNotFound, http.StatusServiceUnavailable, 529:
		llmErr.Err, llmErr.Category = ErrModelUnavailable, "model_unavailable"
	default:
		classifyByMessage(llmErr, strings.ToLower(err.Error()))
	}

	return &apperr.TransportError{Target: provider, StatusCode: statusCode, Err: llmErr}
}

func classifyByMessage(llmErr *LLMError, errStr string) {
	switch {
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "ratelimit"):
		llmErr.Err, llmErr.Category = ErrRateLimited, "rate_limit"
	case strings.Contains(errStr, "overloaded") || strings.Contains(errStr, "model not found"):
		llmErr.Err, llmErr.Category = ErrModelUnavailable, "model_unavailable"
	case strings.Contains(errStr, "invalid api key") || strings.Contains(errStr, "authentication"):
		llmErr.Err, llmErr.Category = ErrInvalidAPIKey, "invalid_key"
	case strings.Contains(errStr, "context") && strings.Contains(errStr, "length"):
		llmErr.Err, llmErr.Category = ErrContentTooLong, "content_too_long"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		llmErr.Err, llmErr.Category = ErrProviderError, "timeout"
	default:
		llmErr.Err, llmErr.Category = ErrProviderError, "provider_error"
	}
}
