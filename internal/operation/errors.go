package operation

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies operation errors for appropriate handling.
type ErrorType string

const (
	// ErrorTypeNotFound indicates the remote resource does not exist (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeUnauthorized indicates rejected credentials (401)
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeHTTP indicates any other non-2xx response
	ErrorTypeHTTP ErrorType = "http_failure"

	// ErrorTypeTransform indicates the response could not be reshaped
	ErrorTypeTransform ErrorType = "transform_error"

	// ErrorTypeValidation indicates the request could not be built from the bundle
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeConnection indicates the request never produced a response
	ErrorTypeConnection ErrorType = "connection_error"
)

// UnauthorizedMessage is returned by every action on a 401 response.
const UnauthorizedMessage = "Unauthorized. Please verify your organization ID and OAUTH credentials."

// maxBodyInMessage bounds the response body quoted in HTTP failure messages.
const maxBodyInMessage = 500

// Error represents an operation execution error with classification.
type Error struct {
	Type ErrorType

	// Message is the user-facing description.
	Message string

	// Action is the key of the action that failed.
	Action string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Body is the raw response body for HTTP failures.
	Body string

	// RequestID from the remote service
	RequestID string

	// SuggestText provides guidance on how to resolve the error.
	SuggestText string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *Error) ErrorType() string {
	return string(e.Type)
}

// IsRetryable implements pkg/errors.ErrorClassifier. No operation error is
// retried by this layer.
func (e *Error) IsRetryable() bool {
	return false
}

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *Error) UserMessage() string {
	return e.Message
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// NewNotFoundError builds the error for a 404 response.
func NewNotFoundError(action, message string) *Error {
	return &Error{
		Type:        ErrorTypeNotFound,
		Action:      action,
		Message:     message,
		StatusCode:  http.StatusNotFound,
		SuggestText: "Check the identifiers supplied to the action",
	}
}

// NewUnauthorizedError builds the error for a 401 response.
func NewUnauthorizedError(action string) *Error {
	return &Error{
		Type:        ErrorTypeUnauthorized,
		Action:      action,
		Message:     UnauthorizedMessage,
		StatusCode:  http.StatusUnauthorized,
		SuggestText: "Run 'hrmless auth refresh' or 'hrmless auth login'",
	}
}

// NewHTTPError builds the error for any other failing status.
func NewHTTPError(action, method, url string, statusCode int, body []byte) *Error {
	message := fmt.Sprintf("Got %d calling %s %s, expected 2xx.", statusCode, method, url)
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && len(trimmed) < maxBodyInMessage {
		message = fmt.Sprintf("%s Response: %s", message, trimmed)
	}

	err := &Error{
		Type:       ErrorTypeHTTP,
		Action:     action,
		Message:    message,
		StatusCode: statusCode,
		Body:       string(body),
	}
	if statusCode >= 500 {
		err.SuggestText = "The HRMLESS API reported an internal error; try again later"
	}
	return err
}

// NewTransformError creates an error for response transform failures.
func NewTransformError(action string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeTransform,
		Action:      action,
		Message:     "response transform failed",
		Cause:       cause,
		SuggestText: "The response did not have the expected structure",
	}
}

// NewValidationError creates an error for bundles that cannot produce a
// request.
func NewValidationError(action, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Action:  action,
		Message: message,
	}
}

// NewConnectionError creates an error for network/DNS failures.
func NewConnectionError(action string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeConnection,
		Action:      action,
		Message:     "request failed",
		Cause:       cause,
		SuggestText: "Check network connectivity and the configured BASE_URL",
	}
}
