package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hrmless/adapter/pkg/errors"
)

// The helpers below are used by hosts that collect input themselves (CLI,
// MCP) before handing a bundle to an action. Actions never call them.

// ApplyDefaults returns a copy of input with declared defaults filled in for
// absent top-level fields.
func ApplyDefaults(fields []Field, input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	for _, f := range fields {
		if f.Default == nil {
			continue
		}
		if _, ok := out[f.Key]; !ok {
			out[f.Key] = f.Default
		}
	}
	return out
}

// MissingRequired returns the keys of required top-level fields that are
// absent or blank in input.
func MissingRequired(fields []Field, input map[string]any) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := input[f.Key]
		if !ok || v == nil {
			missing = append(missing, f.Key)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// Coerce converts string values of integer and boolean fields to their
// declared types. Values of other types pass through untouched.
func Coerce(fields []Field, input map[string]any) (map[string]any, error) {
	types := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		types[f.Key] = f.Type
	}

	out := make(map[string]any, len(input))
	for k, v := range input {
		s, isString := v.(string)
		if !isString {
			out[k] = v
			continue
		}
		switch types[k] {
		case TypeInteger:
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, &errors.ValidationError{
					Field:      k,
					Message:    fmt.Sprintf("%q is not an integer", s),
					Suggestion: "Provide a whole number",
				}
			}
			out[k] = n
		case TypeBoolean:
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, &errors.ValidationError{
					Field:      k,
					Message:    fmt.Sprintf("%q is not a boolean", s),
					Suggestion: "Use true or false",
				}
			}
			out[k] = b
		default:
			out[k] = v
		}
	}
	return out, nil
}
