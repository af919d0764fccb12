package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Records arrive from spreadsheets and JSON exports, so any field can show up
// as nil, a whitespace-only string, or a NaN float. The two predicates below
// are the single place that classifies a scalar as usable; every operation
// applies them to every field rather than re-checking ad hoc.

// CleanScalar normalizes a scalar value. It returns the cleaned value and
// true when the value is usable: strings are trimmed and must be non-empty,
// NaN floats and nil are rejected, everything else passes through.
func CleanScalar(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, false
		}
		return s, true
	case float64:
		if math.IsNaN(x) {
			return nil, false
		}
		return x, true
	case float32:
		if math.IsNaN(float64(x)) {
			return nil, false
		}
		return x, true
	default:
		return v, true
	}
}

// CleanKeyString cleans a scalar that must serve as a string key: a node's
// unique-key value, a node element ID, or a relationship type. Numeric values
// are rendered to their canonical string form; NaN, nil, and blank strings
// are rejected.
func CleanKeyString(v any) (string, bool) {
	cleaned, ok := CleanScalar(v)
	if !ok {
		return "", false
	}

	switch x := cleaned.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// filterProps drops every unusable value from props, cleaning the survivors.
// The returned map is always a fresh copy.
func filterProps(props map[string]any) map[string]any {
	filtered := make(map[string]any, len(props))
	for k, v := range props {
		if cleaned, ok := CleanScalar(v); ok {
			filtered[k] = cleaned
		}
	}
	return filtered
}
