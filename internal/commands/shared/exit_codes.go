// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/operation"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

const (
	ExitSuccess         = 0
	ExitExecutionFailed = 1
	ExitInvalidUsage    = 2
	ExitMissingInput    = 3
	ExitAuthRequired    = 4
	ExitNotFound        = 5
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError wraps a failure to complete the command.
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitExecutionFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidUsageError reports bad flags or arguments.
func NewInvalidUsageError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidUsage,
		Message: msg,
		Cause:   cause,
	}
}

// NewMissingInputError reports required fields without values.
func NewMissingInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitMissingInput,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCode maps err to a process exit code. Explicit ExitErrors win;
// otherwise auth and not-found failures get their own codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var opErr *operation.Error
	if errors.As(err, &opErr) {
		switch opErr.Type {
		case operation.ErrorTypeUnauthorized:
			return ExitAuthRequired
		case operation.ErrorTypeNotFound:
			return ExitNotFound
		case operation.ErrorTypeValidation:
			return ExitMissingInput
		}
	}

	var sessErr *pkgerrors.SessionError
	var testErr *auth.AuthTestError
	if errors.As(err, &sessErr) || errors.As(err, &testErr) {
		return ExitAuthRequired
	}

	var cfgErr *pkgerrors.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitInvalidUsage
	}

	return ExitExecutionFailed
}

// PrintError writes err and any suggestion it carries to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, RenderError(err.Error()))
	printUserVisibleSuggestion(w, err)
}

// HandleExitError prints err and exits with its code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	PrintError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

func printUserVisibleSuggestion(w io.Writer, err error) {
	// Walk the error chain to find a UserVisibleError
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				suggestion := userErr.Suggestion()
				if suggestion != "" {
					fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
				}
			}
			return
		}

		err = errors.Unwrap(err)
	}
}
