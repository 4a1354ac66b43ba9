package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pair(localAt, localBy, remoteAt, remoteBy string) (Record, Record) {
	local := Record{Fields: map[string]any{
		"ID": "a1", "UpdatedAt": localAt, "UpdatedBy": localBy,
	}}
	remote := Record{Fields: map[string]any{
		"c_id": "A1", "c_at": remoteAt, "c_by": remoteBy,
	}}
	return local, remote
}

func resolverWith(policy Policy) Resolver {
	return Resolver{Mapping: twoWayMapping(), Policy: policy}
}

func TestResolver_NewerTimestampWins(t *testing.T) {
	r := resolverWith(PolicyNone)

	local, remote := pair("2026-03-02T10:00:00Z", "alice", "2026-03-01T10:00:00Z", "bob")
	assert.Equal(t, WinnerLocal, r.Resolve(local, remote).Winner)

	local, remote = pair("2026-03-01T10:00:00Z", "alice", "2026-03-02T10:00:00Z", "bob")
	assert.Equal(t, WinnerRemote, r.Resolve(local, remote).Winner)
}

func TestResolver_EqualTimestampsAreConflicts(t *testing.T) {
	r := resolverWith(PolicyLocal)

	// Policy only applies when no timestamps decide; an exact tie between
	// parseable timestamps stays unresolved even under policy local.
	local, remote := pair("2026-03-01T10:00:00Z", "alice", "2026-03-01T10:00:00Z", "bob")
	d := r.Resolve(local, remote)
	assert.Equal(t, WinnerNone, d.Winner)
	assert.Equal(t, "timestamps equal", d.Reason)
}

func TestResolver_OneSidedTimestampWins(t *testing.T) {
	r := resolverWith(PolicyNone)

	local, remote := pair("2026-03-01T10:00:00Z", "alice", "", "")
	assert.Equal(t, WinnerLocal, r.Resolve(local, remote).Winner)

	local, remote = pair("", "", "2026-03-01T10:00:00Z", "bob")
	assert.Equal(t, WinnerRemote, r.Resolve(local, remote).Winner)

	local, remote = pair("not a date", "alice", "2026-03-01", "bob")
	assert.Equal(t, WinnerRemote, r.Resolve(local, remote).Winner, "unparseable counts as missing")
}

func TestResolver_PolicyFallback(t *testing.T) {
	local, remote := pair("", "", "", "")

	assert.Equal(t, WinnerLocal, resolverWith(PolicyLocal).Resolve(local, remote).Winner)
	assert.Equal(t, WinnerRemote, resolverWith(PolicyRemote).Resolve(local, remote).Winner)
	assert.Equal(t, WinnerNone, resolverWith(PolicyNone).Resolve(local, remote).Winner)
}

func TestResolver_NewestNonEmptyPolicy(t *testing.T) {
	r := resolverWith(PolicyNewestNonEmpty)

	local, remote := pair("", "alice", "", "")
	assert.Equal(t, WinnerLocal, r.Resolve(local, remote).Winner)

	local, remote = pair("", "", "", "bob")
	assert.Equal(t, WinnerRemote, r.Resolve(local, remote).Winner)

	local, remote = pair("", "alice", "", "bob")
	assert.Equal(t, WinnerNone, r.Resolve(local, remote).Winner, "both sides have metadata, no winner")
}

func TestResolver_IsDeterministic(t *testing.T) {
	r := resolverWith(PolicyNone)
	local, remote := pair("2026-03-02T10:00:00Z", "alice", "2026-03-01T10:00:00Z", "bob")

	first := r.Resolve(local, remote)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Resolve(local, remote))
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2026-03-01T10:00:00Z", true},
		{"2026-03-01T10:00:00+05:30", true},
		{"2026-03-01T10:00:00", true},
		{"2026-03-01 10:00:00", true},
		{"2026-03-01", true},
		{"03/01/2026 10:00:00", true},
		{"03/01/2026", true},
		{"  2026-03-01  ", true},
		{"", false},
		{"yesterday", false},
		{"2026-13-45", false},
	}
	for _, tc := range cases {
		_, ok := ParseTimestamp(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
	}
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("")
	assert.True(t, ok)
	assert.Equal(t, PolicyNone, p)

	_, ok = ParsePolicy("coinflip")
	assert.False(t, ok)
}
