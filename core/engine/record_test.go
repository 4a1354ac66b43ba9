package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Field(t *testing.T) {
	rec := Record{Fields: map[string]any{
		"name":  "  Acme  ",
		"qty":   7,
		"empty": nil,
	}}

	assert.Equal(t, "Acme", rec.Field("name"))
	assert.Equal(t, "7", rec.Field("qty"))
	assert.Equal(t, "", rec.Field("empty"))
	assert.Equal(t, "", rec.Field("missing"))

	assert.True(t, rec.Has("empty"))
	assert.False(t, rec.Has("missing"))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "AB-12", NormalizeKey("  ab-12 "))
	assert.Equal(t, "", NormalizeKey("   "))
	assert.Equal(t, NormalizeKey("sup-001"), NormalizeKey("SUP-001"))
}

func TestValuesEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{"x", "x", true},
		{" x ", "x", true},
		{"5", 5.0, true},
		{"5.0", "5", true},
		{"5", "5.1", false},
		{"TRUE", "true", true},
		{"true", true, true},
		{"false", "0", false},
		{"", "", true},
		{"", "x", false},
		{nil, "", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, valuesEqual(tc.a, tc.b), "%v vs %v", tc.a, tc.b)
	}
}
