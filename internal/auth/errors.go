package auth

// AuthTestError wraps any failure of the connection test.
type AuthTestError struct {
	Cause error
}

// Error implements the error interface.
func (e *AuthTestError) Error() string {
	msg := "Unknown error"
	if e.Cause != nil && e.Cause.Error() != "" {
		msg = e.Cause.Error()
	}
	return "Authentication test failed: " + msg
}

// Unwrap returns the underlying cause.
func (e *AuthTestError) Unwrap() error { return e.Cause }

// ErrorType implements errors.ErrorClassifier.
func (e *AuthTestError) ErrorType() string { return "auth_test_failed" }

// IsRetryable implements errors.ErrorClassifier.
func (e *AuthTestError) IsRetryable() bool { return false }

// IsUserVisible implements errors.UserVisibleError.
func (e *AuthTestError) IsUserVisible() bool { return true }

// UserMessage implements errors.UserVisibleError.
func (e *AuthTestError) UserMessage() string { return e.Error() }

// Suggestion implements errors.UserVisibleError.
func (e *AuthTestError) Suggestion() string {
	return "Run 'hrmless auth refresh', or 'hrmless auth login' if the refresh token has expired"
}
