// Package apierror classifies remote task API failures into actionable errors.
//
// Raw failures travel as *RemoteError from the backend up to the dispatcher,
// where Classify turns them into an *ActionableError exactly once.
package apierror

import (
	"fmt"
	"strings"
)

// Code is a taxonomy code carried by an ActionableError.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeUnknown        Code = "UNKNOWN"
)

// FieldDetail is one entry of a remote error's details array.
type FieldDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// RequestContext describes the call that produced a failure.
type RequestContext struct {
	Operation    string
	Params       map[string]any
	ResourceType string
	ResourceID   string
	Hint         string
	RequestID    string
}

// Param returns the string value of a caller parameter, or "".
func (rc RequestContext) Param(name string) string {
	if rc.Params == nil {
		return ""
	}
	if s, ok := rc.Params[name].(string); ok {
		return s
	}
	return ""
}

// ActionableError is the caller-facing error payload.
type ActionableError struct {
	Message        string   `json:"error"`
	Code           Code     `json:"code"`
	Field          string   `json:"field,omitempty"`
	Suggestion     string   `json:"suggestion"`
	RecoveryAction string   `json:"recovery_action,omitempty"`
	ValidValues    []string `json:"valid_values,omitempty"`
}

func (e *ActionableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RemoteError is an unclassified failure of one remote API call: either an
// error response (Status > 0) or a transport failure (Status == 0, Err set).
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Details []FieldDetail
	Context RequestContext
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return "request failed: " + e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("remote error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// InputError is a local input problem detected before any remote call.
type InputError struct {
	Field       string
	Issue       string
	ValidValues []string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Issue
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Issue)
}

// Actionable renders the input error as a caller-facing payload.
func (e *InputError) Actionable() *ActionableError {
	out := &ActionableError{
		Message:        e.Error(),
		Code:           CodeValidation,
		Field:          e.Field,
		Suggestion:     fmt.Sprintf("Fix the '%s' parameter and call the operation again.", e.Field),
		RecoveryAction: "correct_input",
		ValidValues:    e.ValidValues,
	}
	if e.Field == "" {
		out.Suggestion = "Fix the request parameters and call the operation again."
	}
	if len(e.ValidValues) > 0 {
		out.Suggestion = fmt.Sprintf("Use one of: %s.", strings.Join(e.ValidValues, ", "))
	}
	return out
}
