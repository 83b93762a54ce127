package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable code returned to clients.
type ErrorCode string

const (
	// Validation.
	CodeMissingMessage  ErrorCode = "MISSING_MESSAGE"
	CodeInvalidType     ErrorCode = "INVALID_TYPE"
	CodeEmptyMessage    ErrorCode = "EMPTY_MESSAGE"
	CodeMessageTooShort ErrorCode = "MESSAGE_TOO_SHORT"
	CodeMessageTooLong  ErrorCode = "MESSAGE_TOO_LONG"

	// Server side.
	CodeConfigError   ErrorCode = "CONFIG_ERROR"
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeStreamError   ErrorCode = "STREAM_ERROR"

	// Upstream.
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeNetworkError       ErrorCode = "NETWORK_ERROR"
	CodeAuthError          ErrorCode = "AUTH_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	CodeAPIError           ErrorCode = "API_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT"
)

// ErrProviderNotConfigured indicates that the selected provider has no credentials.
var ErrProviderNotConfigured = errors.New("provider not configured")

// RelayError is a failure with a client-facing HTTP contract. UserMessage is
// safe to show; Err holds the internal cause and is only logged.
type RelayError struct {
	HTTPStatus  int
	Code        ErrorCode
	UserMessage string
	Err         error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %v", e.Code, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.HTTPStatus, e.UserMessage)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// NewRelayError builds a RelayError wrapping cause.
func NewRelayError(status int, code ErrorCode, userMessage string, cause error) *RelayError {
	return &RelayError{
		HTTPStatus:  status,
		Code:        code,
		UserMessage: userMessage,
		Err:         cause,
	}
}

func validationError(code ErrorCode, userMessage string) *RelayError {
	return NewRelayError(http.StatusBadRequest, code, userMessage, nil)
}

// ConfigError reports missing setup; operator-actionable.
func ConfigError(cause error) *RelayError {
	return NewRelayError(http.StatusInternalServerError, CodeConfigError,
		"Service configuration error. Please contact support.", cause)
}

// InternalError reports an unexpected server failure.
func InternalError(cause error) *RelayError {
	return NewRelayError(http.StatusInternalServerError, CodeInternalError,
		"An unexpected error occurred. Please try again.", cause)
}

// StreamError reports that a stream could not be delivered.
func StreamError(cause error) *RelayError {
	return NewRelayError(http.StatusInternalServerError, CodeStreamError,
		"Stream interrupted. Please try again.", cause)
}

// TimeoutError reports an upstream call that exceeded its deadline.
func TimeoutError(cause error) *RelayError {
	return NewRelayError(http.StatusGatewayTimeout, CodeTimeout,
		"The request took too long. Please try again.", cause)
}

// NetworkError reports a DNS or connection failure towards the upstream.
func NetworkError(cause error) *RelayError {
	return NewRelayError(http.StatusBadGateway, CodeNetworkError,
		"Unable to connect to AI service. Please try again.", cause)
}

// UpstreamStatusError is returned by providers when the upstream answers with
// a non-success status. Body is kept for logs only.
type UpstreamStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// MapUpstreamStatus converts an upstream HTTP status to the client contract.
// Upstream auth failures never surface as 401/403: client auth is not upstream auth.
func MapUpstreamStatus(status int, cause error) *RelayError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewRelayError(http.StatusBadGateway, CodeAuthError,
			"Service authentication failed. Please contact support.", cause)
	case status == http.StatusTooManyRequests:
		return NewRelayError(http.StatusTooManyRequests, CodeRateLimited,
			"Too many requests. Please wait a moment and try again.", cause)
	case status == http.StatusPaymentRequired:
		return NewRelayError(http.StatusBadGateway, CodeServiceUnavailable,
			"Service temporarily unavailable. Please try again later.", cause)
	case status >= http.StatusInternalServerError:
		return NewRelayError(http.StatusBadGateway, CodeUpstreamError,
			"AI service is experiencing issues. Please try again in a moment.", cause)
	default:
		return NewRelayError(http.StatusBadGateway, CodeAPIError,
			"Unable to generate affirmation. Please try again.", cause)
	}
}

// MapUpstreamError classifies an error returned while opening an upstream stream.
func MapUpstreamError(err error) *RelayError {
	if err == nil {
		return nil
	}

	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr
	}

	if errors.Is(err, ErrProviderNotConfigured) {
		return ConfigError(err)
	}

	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return MapUpstreamStatus(statusErr.StatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}

	return NetworkError(err)
}

// AsRelayError returns err as a RelayError, defaulting to INTERNAL_ERROR.
func AsRelayError(err error) *RelayError {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return InternalError(err)
}
