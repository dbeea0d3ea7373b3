package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by provider cores.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the provider returned an empty body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates that the response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType categorizes a provider error for standardized handling, such
// as determining retryability.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates an invalid or rejected API key.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates an exceeded provider rate limit.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates a malformed request.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates a missing resource such as a model.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a failure on the provider's end.
	ErrorTypeServerError
	// ErrorTypeContentPolicy indicates a content-policy block.
	ErrorTypeContentPolicy
	// ErrorTypeNetwork indicates a client-side network problem.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the request timed out.
	ErrorTypeTimeout
)

// ProviderError normalizes provider-specific failures into a common shape
// with a classified type and the original error chained underneath.
type ProviderError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Provider names the provider that produced the error.
	Provider string
	// StatusCode holds the HTTP status from the response, if applicable.
	StatusCode int
	// Message is the user-facing message from the provider.
	Message string
	// WrappedError holds the original underlying error.
	WrappedError error
}

// Error satisfies the standard error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}

	if s := e.typeString(); s != "" {
		base += fmt.Sprintf(" [%s]", s)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether a request failing with this error should be
// retried. Transient issues like rate limits and server errors are
// retryable; authentication and bad-request failures are not.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// NewProviderError builds a standardized ProviderError.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// ErrorClassifier standardizes provider-specific errors into ProviderError
// instances using context such as HTTP status codes.
type ErrorClassifier struct {
	// Provider is the provider name this classifier reports.
	Provider string
}

// ClassifyHTTPError classifies an error by its HTTP status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	var userMessage string

	switch statusCode {
	case 401, 403:
		errType = ErrorTypeAuthentication
		userMessage = fmt.Sprintf("%s authentication failed", ec.Provider)
	case 429:
		errType = ErrorTypeRateLimit
		userMessage = fmt.Sprintf("%s rate limit exceeded", ec.Provider)
	case 400:
		errType = ErrorTypeBadRequest
		userMessage = message
	case 404:
		errType = ErrorTypeNotFound
		userMessage = message
	case 500, 502, 503, 504:
		errType = ErrorTypeServerError
		userMessage = message
	default:
		if statusCode >= 400 && statusCode < 500 {
			errType = ErrorTypeBadRequest
		} else if statusCode >= 500 {
			errType = ErrorTypeServerError
		} else {
			errType = ErrorTypeUnknown
		}
		userMessage = message
	}

	return NewProviderError(ec.Provider, errType, statusCode, userMessage, err)
}

// ClassifyContextError classifies context cancellation and deadline errors.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}
