package output

import "errors"

// Process exit codes for tuture commands.
//
//	0 = success
//	1 = user error (bad arguments, invalid config, unknown commit)
//	2 = system error (git failed, artifact I/O)
//	3 = conflict (foreign hook in place without --chain/--force)
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
	ExitConflict    = 3
)

// ExitError is an error that carries the exit code the CLI should use.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap exposes the cause to errors.Is/errors.As.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an exit-code-1 error.
func NewUserError(message string) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message}
}

// NewUserErrorWithCause creates an exit-code-1 error wrapping cause.
func NewUserErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message, Cause: cause}
}

// NewSystemError creates an exit-code-2 error.
func NewSystemError(message string) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message}
}

// NewSystemErrorWithCause creates an exit-code-2 error wrapping cause.
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message, Cause: cause}
}

// NewConflictError creates an exit-code-3 error.
func NewConflictError(message string) *ExitError {
	return &ExitError{Code: ExitConflict, Message: message}
}

// FromError converts err into an *ExitError. Errors that already carry an
// exit code pass through unchanged; anything else becomes a system error
// whose message is prefix followed by the original message.
func FromError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return NewSystemErrorWithCause(msg, err)
}

// GetExitCode extracts the exit code from an error.
// nil maps to ExitSuccess and untyped errors to ExitUserError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitUserError
}
