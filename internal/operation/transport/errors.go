package transport

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies transport errors.
type ErrorType string

const (
	// ErrorTypeConnection indicates network or DNS errors
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeClient indicates other client errors (4xx)
	ErrorTypeClient ErrorType = "client"

	// ErrorTypeInvalidReq indicates request validation error (invalid method, URL, etc.)
	ErrorTypeInvalidReq ErrorType = "invalid_request"

	// ErrorTypeCancelled indicates context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeDecode indicates a response body that could not be decoded
	ErrorTypeDecode ErrorType = "decode"
)

// maxBodyInMessage bounds how much of an error body is copied into Message.
const maxBodyInMessage = 500

// TransportError represents a structured error from transport execution.
type TransportError struct {
	// Type classifies the error
	Type ErrorType

	// StatusCode is the HTTP status code if applicable.
	// Zero for non-HTTP errors (connection, timeout, etc.)
	StatusCode int

	// Message is safe to log and display
	Message string

	// Body is the raw response body for status errors
	Body string

	// RequestID is the request ID reported by the service
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *TransportError) ErrorType() string {
	return string(e.Type)
}

// IsRetryable implements pkg/errors.ErrorClassifier. Requests are never
// retried by this module.
func (e *TransportError) IsRetryable() bool {
	return false
}

func classifyStatus(statusCode int, body []byte) *TransportError {
	var errorType ErrorType
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errorType = ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		errorType = ErrorTypeTimeout
	case statusCode >= 500:
		errorType = ErrorTypeServer
	default:
		errorType = ErrorTypeClient
	}

	message := fmt.Sprintf("HTTP %d", statusCode)
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && len(trimmed) < maxBodyInMessage {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, trimmed)
	}

	return &TransportError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Body:       string(body),
	}
}
