package engine

import (
	"strings"
	"time"
)

// Policy is the statically configured tie-break for two-way pairs whose
// timestamps do not decide a winner.
type Policy string

const (
	// PolicyLocal lets the local store win undecided pairs.
	PolicyLocal Policy = "local"
	// PolicyRemote lets the remote store win undecided pairs.
	PolicyRemote Policy = "remote"
	// PolicyNewestNonEmpty prefers whichever side has a non-empty
	// updated-at/updated-by pair.
	PolicyNewestNonEmpty Policy = "newestNonEmpty"
	// PolicyNone records undecided pairs as conflicts for human review.
	PolicyNone Policy = "none"
)

// ParsePolicy validates a policy name from configuration. An empty name
// defaults to PolicyNone.
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyLocal, PolicyRemote, PolicyNewestNonEmpty, PolicyNone:
		return Policy(s), true
	case "":
		return PolicyNone, true
	default:
		return "", false
	}
}

// Winner names the side whose field values are pushed to the other side.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
	// WinnerNone means the pair is recorded as a conflict and not applied.
	WinnerNone Winner = "none"
)

// Decision is the outcome of resolving one matched pair.
type Decision struct {
	Winner Winner `json:"winner"`
	Reason string `json:"reason"`
}

// Resolver decides, for one matched record pair, which side wins. It is a
// pure function of the pair's metadata fields and the configured policy:
// same inputs, same decision, regardless of call order or repetition.
type Resolver struct {
	Mapping Mapping
	Policy  Policy
}

// Resolve applies last-write-wins over the mapped updated-at fields.
//
// A strictly greater timestamp wins outright. Exactly equal timestamps are
// unresolved: guessing a deterministic tie-break here would silently discard
// one side's edit, so the pair is surfaced as a conflict instead. A
// timestamp present on only one side wins for that side. When neither side
// has a parseable timestamp the configured policy decides.
func (r Resolver) Resolve(local, remote Record) Decision {
	lt, lok := ParseTimestamp(r.Mapping.UpdatedAt(local, SideLocal))
	rt, rok := ParseTimestamp(r.Mapping.UpdatedAt(remote, SideRemote))

	switch {
	case lok && rok:
		if lt.After(rt) {
			return Decision{Winner: WinnerLocal, Reason: "local timestamp newer"}
		}
		if rt.After(lt) {
			return Decision{Winner: WinnerRemote, Reason: "remote timestamp newer"}
		}
		return Decision{Winner: WinnerNone, Reason: "timestamps equal"}
	case lok:
		return Decision{Winner: WinnerLocal, Reason: "only local has timestamp"}
	case rok:
		return Decision{Winner: WinnerRemote, Reason: "only remote has timestamp"}
	}

	return r.fallback(local, remote)
}

func (r Resolver) fallback(local, remote Record) Decision {
	switch r.Policy {
	case PolicyLocal:
		return Decision{Winner: WinnerLocal, Reason: "no timestamps, policy local"}
	case PolicyRemote:
		return Decision{Winner: WinnerRemote, Reason: "no timestamps, policy remote"}
	case PolicyNewestNonEmpty:
		lHas := r.Mapping.UpdatedAt(local, SideLocal) != "" || r.Mapping.UpdatedBy(local, SideLocal) != ""
		rHas := r.Mapping.UpdatedAt(remote, SideRemote) != "" || r.Mapping.UpdatedBy(remote, SideRemote) != ""
		if lHas && !rHas {
			return Decision{Winner: WinnerLocal, Reason: "only local has edit metadata"}
		}
		if rHas && !lHas {
			return Decision{Winner: WinnerRemote, Reason: "only remote has edit metadata"}
		}
		return Decision{Winner: WinnerNone, Reason: "no usable edit metadata"}
	default:
		return Decision{Winner: WinnerNone, Reason: "no timestamps, policy none"}
	}
}

// timestampLayouts covers ISO forms plus the date formats spreadsheets
// commonly hold.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp parses an updated-at value as an instant. It accepts
// RFC3339 (with or without Z) and common sheet formats. Returns false for
// empty or unparseable values.
func ParseTimestamp(s string) (time.Time, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return time.Time{}, false
	}
	if strings.Contains(t, "T") {
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02T15:04:05", t); err == nil {
			return ts, true
		}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
