package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a loosely typed value (typically a widget response or a field
// rehydrated from JSON) into out, accepting numbers encoded as strings or floats.
func Decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("failed to decode %T: %w", in, err)
	}
	return nil
}

// AsInt converts a response or field value to an int. Fractional, non-finite
// and out-of-range numbers are rejected.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case string:
		clean := strings.TrimSpace(n)
		if i, err := strconv.Atoi(clean); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int(f), true
}

// AsString converts a scalar value to a string.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprintf("%v", v)
}

// AsStrings converts a list value ([]string or []any) to a []string.
// A scalar becomes a single-element list.
func AsStrings(v any) []string {
	switch list := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, AsString(item))
		}
		return out
	}
	return []string{AsString(v)}
}

// AsBool converts a flag value; "yes"/"true"/"1" are truthy.
func AsBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		clean := strings.ToLower(strings.TrimSpace(b))
		return clean == "y" || clean == "yes" || clean == "true" || clean == "1"
	}
	n, ok := AsInt(v)
	return ok && n != 0
}

// Contains reports whether list holds value.
func Contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
