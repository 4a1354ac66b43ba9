package config

import (
	"testing"

	"tablesync/core/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validUnits = `[
  {
    "name": "suppliers",
    "mode": "push",
    "local":  {"kind": "sheet", "table": "Suppliers"},
    "remote": {"kind": "glide", "table": "SuppliersTable"},
    "mapping": {
      "fields": {"ID": "O0rtV", "Name": "xJ9pQ", "Qty": "mK2aa"},
      "syncKeyField": "ID"
    },
    "skipEmptyOverwrite": true
  },
  {
    "name": "ccp",
    "mode": "twoway",
    "local":  {"kind": "sheet", "table": "CCP"},
    "remote": {"kind": "glide", "table": "CCPTable"},
    "mapping": {
      "fields": {"ID": "aaa", "Name": "bbb", "UpdatedAt": "ccc", "UpdatedBy": "ddd"},
      "syncKeyField": "ID",
      "updatedAtField": "UpdatedAt",
      "updatedByField": "UpdatedBy"
    },
    "conflictPolicy": "newestNonEmpty"
  }
]`

func TestParseUnits(t *testing.T) {
	units, err := ParseUnits(validUnits)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "suppliers", units[0].Name)
	assert.Equal(t, engine.ModePush, units[0].Mode)
	assert.True(t, units[0].SkipEmptyOverwrite)
	assert.Equal(t, engine.PolicyNone, units[0].ConflictPolicy, "policy defaults to none")

	assert.Equal(t, engine.ModeTwoWay, units[1].Mode)
	assert.Equal(t, engine.PolicyNewestNonEmpty, units[1].ConflictPolicy)
	assert.Equal(t, "UpdatedAt", units[1].Mapping.UpdatedAtField)
}

func TestParseUnits_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"invalid json", `{`, "invalid JSON"},
		{"missing name", `[{"mode":"push"}]`, "name is required"},
		{
			"duplicate name",
			`[
			  {"name":"a","mode":"append","local":{"kind":"sheet","table":"T"},"remote":{"kind":"glide","table":"G"},"mapping":{"fields":{"ID":"x"},"syncKeyField":"ID"}},
			  {"name":"a","mode":"append","local":{"kind":"sheet","table":"T"},"remote":{"kind":"glide","table":"G"},"mapping":{"fields":{"ID":"x"},"syncKeyField":"ID"}}
			]`,
			"duplicate name",
		},
		{
			"bad mode",
			`[{"name":"a","mode":"mirror","local":{"kind":"sheet","table":"T"},"remote":{"kind":"glide","table":"G"},"mapping":{"fields":{"ID":"x"},"syncKeyField":"ID"}}]`,
			"unknown mode",
		},
		{
			"bad endpoint kind",
			`[{"name":"a","mode":"append","local":{"kind":"csv","table":"T"},"remote":{"kind":"glide","table":"G"},"mapping":{"fields":{"ID":"x"},"syncKeyField":"ID"}}]`,
			"unknown endpoint kind",
		},
		{
			"twoway without metadata fields",
			`[{"name":"a","mode":"twoway","local":{"kind":"sheet","table":"T"},"remote":{"kind":"glide","table":"G"},"mapping":{"fields":{"ID":"x"},"syncKeyField":"ID"}}]`,
			"updatedAtField",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseUnits(tc.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.glideapp.io", cfg.Glide.BaseURL)
	assert.Equal(t, 200, cfg.Glide.MutationChunk)
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)

	units, err := cfg.Units()
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_UNITS_JSON", validUnits)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)

	units, err := cfg.Units()
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestLoadConfigRejectsBadUnits(t *testing.T) {
	t.Setenv("SYNC_UNITS_JSON", `[{"name":"broken","mode":"mirror"}]`)

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}
