package engine

import (
	"strings"

	"tablesync/core/utils"
)

// Record is a single row from either store: a map of field names to scalar
// values, plus the store-assigned row id when known. Values are scalars only
// (string, number, boolean, date-as-string); nested structures are not
// supported.
type Record struct {
	// ID is the store-assigned identifier (e.g., the Glide $rowID).
	// Empty for records that have not been created yet.
	ID string

	// Fields maps field names to scalar values. Local records use local
	// header names; remote records use remote column ids.
	Fields map[string]any
}

// Field returns the record's value for the given field as a trimmed string.
// Missing fields and nils read as "".
func (r Record) Field(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(utils.ToString(v))
}

// Has reports whether the field exists in the record at all, regardless of
// emptiness.
func (r Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// NormalizeKey canonicalizes a sync key before equality comparison: trim
// plus case-fold. This is deliberately the single place the rule lives so it
// can be swapped without touching match logic.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// valuesEqual compares two scalar values after type normalization: numeric
// strings compare as numbers, booleans case-insensitively, everything else
// as exact strings.
func valuesEqual(a, b any) bool {
	as := strings.TrimSpace(utils.ToString(a))
	bs := strings.TrimSpace(utils.ToString(b))
	if as == bs {
		return true
	}

	if af, aok := utils.ToFloat(as); aok {
		if bf, bok := utils.ToFloat(bs); bok {
			return af == bf
		}
	}

	if isBoolish(as) && isBoolish(bs) {
		return utils.ToBool(as) == utils.ToBool(bs)
	}

	return false
}

func isBoolish(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	default:
		return false
	}
}
