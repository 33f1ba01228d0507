package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"taskbridge/internal/service"
)

// Classify maps a remote failure to an ActionableError. It is pure and total:
// every input yields a non-nil result with a non-empty Suggestion.
func Classify(status int, code, message string, details []FieldDetail, rc RequestContext) *ActionableError {
	// Validation with a field
	if code == string(CodeValidation) {
		for _, d := range details {
			if d.Field != "" {
				return classifyValidation(d)
			}
		}
	}

	// Not found
	if code == string(CodeNotFound) || (code == "" && status == http.StatusNotFound) {
		return classifyNotFound(message, rc)
	}

	// Unauthorized
	if code == string(CodeUnauthorized) || code == "FORBIDDEN" ||
		(code == "" && (status == http.StatusUnauthorized || status == http.StatusForbidden)) {
		return &ActionableError{
			Message:        "Authentication with the task API failed",
			Code:           CodeUnauthorized,
			Suggestion:     "Check that TASKBRIDGE_API_TOKEN is set to a valid, unexpired API token with access to this workspace.",
			RecoveryAction: "check_credentials",
		}
	}

	// Conflict
	if code == string(CodeConflict) || status == http.StatusConflict || status == http.StatusPreconditionFailed {
		return &ActionableError{
			Message:        "The resource was modified by someone else",
			Code:           CodeConflict,
			Field:          "etag",
			Suggestion:     fmt.Sprintf("Fetch the %s again to get its current 'etag', then retry the update with that etag.", resourceNoun(rc)),
			RecoveryAction: "refetch_and_retry",
		}
	}

	// Internal
	if code == string(CodeInternal) || status >= 500 {
		return &ActionableError{
			Message:        "The task API reported a temporary server error",
			Code:           CodeInternal,
			Suggestion:     "This is usually transient and was already retried automatically. Wait a few seconds and try again.",
			RecoveryAction: "retry_later",
		}
	}

	// Invalid request
	if code == string(CodeInvalidRequest) {
		lower := strings.ToLower(message)
		if strings.Contains(lower, "update_mask") || strings.Contains(lower, "update mask") || strings.Contains(lower, "updatemask") {
			fields := mutableFields(rc.ResourceType)
			return &ActionableError{
				Message:        "Invalid update mask",
				Code:           CodeInvalidRequest,
				Field:          "update_mask",
				Suggestion:     fmt.Sprintf("List the fields to change in 'update_mask'. Allowed fields: %s.", strings.Join(fields, ", ")),
				RecoveryAction: "fix_update_mask",
				ValidValues:    fields,
			}
		}
		return &ActionableError{
			Message:        nonEmpty(message, "The request was malformed"),
			Code:           CodeInvalidRequest,
			Suggestion:     "Check the operation's required parameters and their types, then try again.",
			RecoveryAction: "correct_input",
		}
	}

	// Fallback
	out := &ActionableError{
		Message:    nonEmpty(message, "Unexpected error from the task API"),
		Code:       Code(code),
		Suggestion: "Check the parameters and try again. If the problem persists, inspect the server logs.",
	}
	if out.Code == "" {
		out.Code = CodeUnknown
	}
	return out
}

func classifyNotFound(message string, rc RequestContext) *ActionableError {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "recurring template"):
		id := idFor(rc, "template_id", "recurring_template")
		return &ActionableError{
			Message:        fmt.Sprintf("No recurring template exists with ID '%s'", id),
			Code:           CodeNotFound,
			Field:          "template_id",
			Suggestion:     "Call list_recurring_templates for the list to find valid template IDs.",
			RecoveryAction: "list_recurring_templates",
		}
	case strings.Contains(lower, "item"):
		id := idFor(rc, "item_id", "item")
		return &ActionableError{
			Message:        fmt.Sprintf("No item exists with ID '%s'", id),
			Code:           CodeNotFound,
			Field:          "item_id",
			Suggestion:     "Call list_items for the list to find valid item IDs. The item may have been deleted.",
			RecoveryAction: "list_items",
		}
	case strings.Contains(lower, "list"):
		id := idFor(rc, "list_id", "list")
		return &ActionableError{
			Message:        fmt.Sprintf("No list exists with ID '%s'", id),
			Code:           CodeNotFound,
			Field:          "list_id",
			Suggestion:     "Call list_lists to see the available lists and their IDs.",
			RecoveryAction: "list_lists",
		}
	}
	return &ActionableError{
		Message:        nonEmpty(message, "The requested resource was not found"),
		Code:           CodeNotFound,
		Suggestion:     "Verify the IDs you passed. Use list_lists and list_items to look them up.",
		RecoveryAction: "verify_ids",
	}
}

// idFor prefers the caller's parameter, then the failing call's resource id.
func idFor(rc RequestContext, param, resourceType string) string {
	if id := rc.Param(param); id != "" {
		return id
	}
	if rc.ResourceType == resourceType && rc.ResourceID != "" {
		return rc.ResourceID
	}
	return "unknown"
}

func mutableFields(resourceType string) []string {
	switch resourceType {
	case "list":
		return service.ListMutableFields
	case "recurring_template":
		return service.TemplateMutableFields
	default:
		return service.ItemMutableFields
	}
}

func resourceNoun(rc RequestContext) string {
	switch rc.ResourceType {
	case "list":
		return "list"
	case "recurring_template":
		return "recurring template"
	default:
		return "item"
	}
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// FromError classifies any error returned by a tool. rc describes the tool
// call and is used when err does not carry a request context of its own.
func FromError(err error, rc RequestContext) *ActionableError {
	if err == nil {
		return nil
	}

	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Actionable()
	}

	if errors.Is(err, context.Canceled) {
		return &ActionableError{
			Message:    "The operation was cancelled",
			Code:       CodeUnknown,
			Suggestion: "The caller cancelled the request before it finished. Call the operation again if the result is still needed.",
		}
	}

	var re *RemoteError
	if errors.As(err, &re) {
		ctx := re.Context
		if ctx.Operation == "" {
			ctx.Operation = rc.Operation
		}
		if ctx.Params == nil {
			ctx.Params = rc.Params
		}
		if ctx.RequestID == "" {
			ctx.RequestID = rc.RequestID
		}
		out := Classify(re.Status, re.Code, re.Message, re.Details, ctx)
		if re.Status == 0 {
			transportHint(out, err)
		}
		return out
	}

	out := Classify(0, "", err.Error(), nil, rc)
	transportHint(out, err)
	return out
}

func transportHint(out *ActionableError, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		out.Suggestion = "The task API did not respond in time. Wait a few seconds and try again."
	} else {
		out.Suggestion = "The task API could not be reached. Check TASKBRIDGE_API_BASE_URL and network connectivity, then try again."
	}
	out.RecoveryAction = "retry_later"
}
