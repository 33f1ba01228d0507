// Package exitcode defines exit codes for the CLI.
package exitcode

import "taskbridge/internal/apierror"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a problem the caller can fix (bad input, not found, conflict).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromCode maps an error taxonomy code to an exit code.
func FromCode(code apierror.Code) int {
	switch code {
	case apierror.CodeValidation, apierror.CodeInvalidRequest, apierror.CodeNotFound, apierror.CodeConflict:
		return UserError
	case apierror.CodeUnauthorized:
		return AuthError
	default:
		return BackendError
	}
}
