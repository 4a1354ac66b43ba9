package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping(`{
		"fields": {"ID": "c_id", "Name": "c_name"},
		"syncKeyField": "ID"
	}`, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, "c_id", m.Fields["ID"])

	_, err = ParseMapping(`{broken`, ModeAppend)
	require.Error(t, err)
}

func TestMapping_Validate(t *testing.T) {
	base := simpleMapping()

	assert.NoError(t, base.Validate(ModeAppend))

	missing := base
	missing.SyncKeyField = ""
	var me *MappingError
	require.ErrorAs(t, missing.Validate(ModeAppend), &me)
	assert.Equal(t, "syncKeyField", me.Field)

	unmapped := base
	unmapped.SyncKeyField = "Nope"
	require.Error(t, unmapped.Validate(ModeAppend))

	// Two-way requires both metadata roles.
	require.Error(t, base.Validate(ModeTwoWay))
	assert.NoError(t, twoWayMapping().Validate(ModeTwoWay))

	halfMeta := twoWayMapping()
	halfMeta.UpdatedByField = ""
	require.Error(t, halfMeta.Validate(ModeTwoWay))
}

func TestMapping_KeyOfNormalizes(t *testing.T) {
	m := simpleMapping()

	local := Record{Fields: map[string]any{"ID": "  ab-12 "}}
	assert.Equal(t, "AB-12", m.KeyOf(local, SideLocal))

	remote := Record{Fields: map[string]any{"c_id": "ab-12"}}
	assert.Equal(t, "AB-12", m.KeyOf(remote, SideRemote))

	assert.Equal(t, "", m.KeyOf(Record{Fields: map[string]any{"ID": "   "}}, SideLocal))
}

func TestMapping_TranslateBothDirections(t *testing.T) {
	m := simpleMapping()

	local := Record{ID: "7", Fields: map[string]any{"ID": "a1", "Name": "Acme", "Extra": "dropped"}}
	out, err := m.Translate(local, LocalToRemote)
	require.NoError(t, err)
	assert.Equal(t, "7", out.ID)
	assert.Equal(t, "Acme", out.Fields["c_name"])
	assert.NotContains(t, out.Fields, "Extra", "undeclared fields are dropped")
	assert.Equal(t, "", out.Fields["c_qty"], "missing mapped fields become empty")

	remote := Record{ID: "r1", Fields: map[string]any{"c_id": "a1", "c_qty": 5}}
	back, err := m.Translate(remote, RemoteToLocal)
	require.NoError(t, err)
	assert.Equal(t, 5, back.Fields["Qty"])
}

func TestMapping_TranslateMissingKeyField(t *testing.T) {
	m := simpleMapping()

	_, err := m.Translate(Record{Fields: map[string]any{"Name": "keyless"}}, LocalToRemote)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "ID", me.Field)

	// A present but empty key is a data problem, not a mapping problem.
	_, err = m.Translate(Record{Fields: map[string]any{"ID": "", "Name": "x"}}, LocalToRemote)
	assert.NoError(t, err)
}

func TestMapping_IsMeta(t *testing.T) {
	m := twoWayMapping()
	assert.True(t, m.IsMeta("UpdatedAt"))
	assert.True(t, m.IsMeta("UpdatedBy"))
	assert.False(t, m.IsMeta("Name"))
	assert.False(t, simpleMapping().IsMeta(""))
}

func TestMapping_LocalFieldsSorted(t *testing.T) {
	assert.Equal(t, []string{"ID", "Name", "Qty"}, simpleMapping().LocalFields())
}
