package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToString converts a scalar value to its string form. Nils read as "".
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToFloat parses a value as a number. The second return is false when the
// value is not numeric.
func ToFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case nil:
		return 0, false
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(ToString(v)), 64)
		return f, err == nil
	}
}

// ToBool converts a value to bool. It handles bool, numeric 1, and the
// strings "1"/"true" (case-insensitive).
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	case []byte:
		return ToBool(string(v))
	default:
		if f, ok := ToFloat(v); ok {
			return f == 1
		}
		return false
	}
}
