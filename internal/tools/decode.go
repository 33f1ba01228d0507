package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskbridge/internal/apierror"
	"taskbridge/internal/service"
)

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeArgs decodes the caller's JSON arguments into dst and validates its
// struct tags. Problems are reported as *apierror.InputError.
func decodeArgs(args json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage("{}")
	}

	if err := json.Unmarshal(args, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &apierror.InputError{
				Field: typeErr.Field,
				Issue: fmt.Sprintf("must be of type %s", jsonType(typeErr.Type)),
			}
		}
		return &apierror.InputError{Issue: "arguments must be a JSON object: " + err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return &apierror.InputError{Issue: err.Error()}
	}
	return nil
}

func fieldError(fe validator.FieldError) *apierror.InputError {
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, ".") {
		// Drop the struct name, keep nested json names.
		_, rest, _ := strings.Cut(ns, ".")
		field = rest
	}

	ie := &apierror.InputError{Field: field}
	switch fe.Tag() {
	case "required":
		ie.Issue = "is required"
	case "oneof":
		ie.Issue = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
		ie.ValidValues = strings.Fields(fe.Param())
	case "min":
		ie.Issue = fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		ie.Issue = fmt.Sprintf("must be at most %s", fe.Param())
	default:
		ie.Issue = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return ie
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "array"
	default:
		return t.String()
	}
}

// normalizeDue rewrites a caller timestamp in fixed-width UTC.
func normalizeDue(field, s string) (string, error) {
	out, err := service.NormalizeTimestamp(s)
	if err != nil {
		return "", &apierror.InputError{
			Field: field,
			Issue: "must be an ISO 8601 timestamp such as 2025-01-31T17:00:00Z",
		}
	}
	return out, nil
}

// buildPatch validates mask against allowed and picks the masked values.
// Fields not named in the mask are ignored even if the caller supplied them.
func buildPatch(mask []string, allowed []string, values map[string]any, etag string) (service.Patch, error) {
	if len(mask) == 0 {
		return service.Patch{}, &apierror.InputError{
			Field:       "update_mask",
			Issue:       "must list at least one field to change",
			ValidValues: allowed,
		}
	}

	fields := make(map[string]any, len(mask))
	paths := make([]string, 0, len(mask))
	for _, path := range mask {
		path = strings.TrimSpace(path)
		if !slices.Contains(allowed, path) {
			return service.Patch{}, &apierror.InputError{
				Field:       "update_mask",
				Issue:       fmt.Sprintf("unknown field %q", path),
				ValidValues: allowed,
			}
		}
		if _, dup := fields[path]; dup {
			continue
		}
		fields[path] = values[path]
		paths = append(paths, path)
	}
	return service.Patch{Mask: paths, Fields: fields, ETag: etag}, nil
}

// Enum value lists used in parameter declarations and validation.
var (
	statusValues     = enumStrings(service.Statuses)
	priorityValues   = enumStrings(service.Priorities)
	recurrenceValues = enumStrings(service.RecurrencePatterns)
)

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
