package apierror

import (
	"fmt"

	"taskbridge/internal/service"
)

type validationKey struct {
	field string
	issue string
}

type guide struct {
	message     string
	suggestion  string
	recovery    string
	validValues []string
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// validationGuides holds the known (field, issue) pairs reported by the
// remote API. New cases are added here, not in Classify.
var validationGuides = map[validationKey]guide{
	{"title", "required"}: {
		message:    "Title is required",
		suggestion: "Provide a non-empty 'title' describing the task.",
		recovery:   "add_title",
	},
	{"title", "too_long"}: {
		message:    "Title is too long",
		suggestion: "Shorten 'title' to at most 200 characters and move details into 'description'.",
		recovery:   "shorten_title",
	},
	{"status", "invalid_enum"}: {
		message:     "Invalid status value",
		suggestion:  "Set 'status' to one of the listed values.",
		recovery:    "use_valid_value",
		validValues: enumValues(service.Statuses),
	},
	{"priority", "invalid_enum"}: {
		message:     "Invalid priority value",
		suggestion:  "Set 'priority' to one of the listed values, or omit it to use 'medium'.",
		recovery:    "use_valid_value",
		validValues: enumValues(service.Priorities),
	},
	{"recurrence_pattern", "invalid_enum"}: {
		message:     "Invalid recurrence pattern",
		suggestion:  "Set 'recurrence_pattern' to one of the listed values.",
		recovery:    "use_valid_value",
		validValues: enumValues(service.RecurrencePatterns),
	},
	{"recurrence_pattern", "required"}: {
		message:     "Recurrence pattern is required",
		suggestion:  "Recurring templates need a 'recurrence_pattern'.",
		recovery:    "use_valid_value",
		validValues: enumValues(service.RecurrencePatterns),
	},
	{"estimated_duration", "invalid_format"}: {
		message:    "Invalid estimated duration format",
		suggestion: "Use an ISO 8601 duration such as 'PT30M', 'PT2H' or 'PT1H30M'.",
		recovery:   "fix_duration_format",
	},
	{"actual_duration", "invalid_format"}: {
		message:    "Invalid actual duration format",
		suggestion: "Use an ISO 8601 duration such as 'PT45M' or 'PT3H15M'.",
		recovery:   "fix_duration_format",
	},
	{"due_at", "invalid_format"}: {
		message:    "Invalid due date format",
		suggestion: "Use an ISO 8601 timestamp in UTC, for example '2025-01-31T17:00:00Z'.",
		recovery:   "fix_date_format",
	},
	{"generation_window_days", "out_of_range"}: {
		message:    "Generation window is out of range",
		suggestion: "Set 'generation_window_days' to a whole number between 1 and 365.",
		recovery:   "adjust_range",
	},
	{"etag", "invalid_format"}: {
		message:    "Malformed concurrency token",
		suggestion: "Fetch the resource again and pass its current 'etag' unchanged.",
		recovery:   "refetch_resource",
	},
	{"recurring_template_id", "required"}: {
		message:    "Recurring instance is missing its template reference",
		suggestion: "Pass 'recurring_template_id' of an existing template in the same list, or create the task without recurrence.",
		recovery:   "add_template_reference",
	},
	{"recurring_template_id", "not_found"}: {
		message:    "Referenced recurring template does not exist",
		suggestion: "Call list_recurring_templates to find a valid template ID for this list.",
		recovery:   "refetch_resource",
	},
}

func classifyValidation(d FieldDetail) *ActionableError {
	g, ok := validationGuides[validationKey{d.Field, d.Issue}]
	if !ok {
		return &ActionableError{
			Message:        fmt.Sprintf("Invalid value for field '%s': %s", d.Field, d.Issue),
			Code:           CodeValidation,
			Field:          d.Field,
			Suggestion:     fmt.Sprintf("Check the value of '%s' and try again.", d.Field),
			RecoveryAction: "correct_input",
		}
	}
	return &ActionableError{
		Message:        g.message,
		Code:           CodeValidation,
		Field:          d.Field,
		Suggestion:     g.suggestion,
		RecoveryAction: g.recovery,
		ValidValues:    g.validValues,
	}
}
