package cli

import "errors"

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	// Use for: Normal, successful command execution.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Database errors, network errors, unexpected failures,
	// or any error that doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags, invalid flag combinations,
	// or when the user needs to provide different arguments.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Board not found, column not found, item not found,
	// or any case where a resource ID or name doesn't exist.
	ExitNotFound = 3

	// ExitDataErr indicates invalid or malformed data.
	// Use for: Invalid JSON input, corrupted data, or data that cannot be processed.
	ExitDataErr = 4

	// ExitValidation indicates a validation error.
	// Use for: Invalid priority values, invalid type values, invalid status,
	// a move the store rejects, or any case where input fails validation rules.
	ExitValidation = 5
)

// CommandError carries the exit code a failed command should end the process with
type CommandError struct {
	Code       int
	Err        error
	Suggestion string
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// WithExitCode tags err with an exit code
func WithExitCode(code int, err error) error {
	return &CommandError{Code: code, Err: err}
}

// WithSuggestion tags err with an exit code and a hint for the user
func WithSuggestion(code int, err error, suggestion string) error {
	return &CommandError{Code: code, Err: err, Suggestion: suggestion}
}

// ExitCode returns the exit code for an error returned by a command
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}
	return ExitError
}

// ErrorCode names the exit code of err for JSON error output
func ErrorCode(err error) string {
	switch ExitCode(err) {
	case ExitUsage:
		return "USAGE_ERROR"
	case ExitNotFound:
		return "NOT_FOUND"
	case ExitDataErr:
		return "DATA_ERROR"
	case ExitValidation:
		return "VALIDATION_ERROR"
	default:
		return "ERROR"
	}
}

// Suggestion returns the hint attached to err, if any
func Suggestion(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Suggestion
	}
	return ""
}

// reportedError marks an error the command already printed
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported marks err as already shown to the user
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported reports whether err was already shown to the user
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
