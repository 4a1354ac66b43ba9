package engine

import "time"

// Mode selects which reconciliation algorithm a run executes.
type Mode string

const (
	// ModeAppend is append-only ingestion: local records with unseen sync
	// keys become remote creates; nothing is ever updated.
	ModeAppend Mode = "append"
	// ModePull mirrors remote records into the local store (delta-aware).
	ModePull Mode = "pull"
	// ModeTwoWay reconciles both sides with last-write-wins semantics.
	ModeTwoWay Mode = "twoway"
	// ModePush pushes local records to the remote store behind a full
	// paginated pre-read.
	ModePush Mode = "push"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeAppend, ModePull, ModeTwoWay, ModePush:
		return Mode(s), true
	default:
		return "", false
	}
}

// Op is the decided operation for one record or matched pair.
type Op string

const (
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpSkip     Op = "skip"
	OpConflict Op = "conflict"
)

// FieldChange describes one field-level difference carried by an update.
type FieldChange struct {
	// Field is the LOCAL header name of the changed field.
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Change is one decided entry of a ChangeSet.
type Change struct {
	// Op is the decided operation.
	Op Op `json:"op"`

	// Key is the normalized sync key of the record or pair.
	Key string `json:"key"`

	// Target is the store receiving the write, for creates and updates.
	Target Side `json:"target,omitempty"`

	// TargetID is the existing row id to update. Empty for creates.
	TargetID string `json:"target_id,omitempty"`

	// Record is the translated record to write, already in the target
	// store's vocabulary. Unset for skips and conflicts.
	Record Record `json:"-"`

	// Diffs lists the field-level differences behind an update.
	Diffs []FieldChange `json:"diffs,omitempty"`

	// Reason explains skips and conflicts (e.g., "duplicate-in-batch").
	Reason string `json:"reason,omitempty"`

	// Decision is the conflict resolution outcome for two-way pairs.
	Decision *Decision `json:"decision,omitempty"`
}

// ChangeSet is the full set of decided operations for one run, prior to
// application. Entries preserve input order within each list.
type ChangeSet struct {
	Creates   []Change `json:"creates"`
	Updates   []Change `json:"updates"`
	Skips     []Change `json:"skips"`
	Conflicts []Change `json:"conflicts"`
}

func (cs *ChangeSet) add(c Change) {
	switch c.Op {
	case OpCreate:
		cs.Creates = append(cs.Creates, c)
	case OpUpdate:
		cs.Updates = append(cs.Updates, c)
	case OpConflict:
		cs.Conflicts = append(cs.Conflicts, c)
	default:
		cs.Skips = append(cs.Skips, c)
	}
}

// Writes returns creates followed by updates, the order Apply uses.
func (cs *ChangeSet) Writes() []Change {
	out := make([]Change, 0, len(cs.Creates)+len(cs.Updates))
	out = append(out, cs.Creates...)
	out = append(out, cs.Updates...)
	return out
}

// OutcomeStatus is the apply result for one change.
type OutcomeStatus string

const (
	StatusApplied OutcomeStatus = "applied"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome is the per-record apply result attached to the run report.
type Outcome struct {
	Key      string        `json:"key"`
	Op       Op            `json:"op"`
	Target   Side          `json:"target"`
	Status   OutcomeStatus `json:"status"`
	AssignedID string      `json:"assigned_id,omitempty"`
	Attempts int           `json:"attempts"`
	Error    string        `json:"error,omitempty"`
}

// DuplicateKey reports a data-integrity violation: the same normalized sync
// key appeared more than once on one side. Duplicates are reported, never
// silently merged; matching uses the first occurrence.
type DuplicateKey struct {
	Side  Side   `json:"side"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary provides aggregate counts for a run.
type Summary struct {
	LocalRows  int `json:"local_rows"`
	RemoteRows int `json:"remote_rows"`
	Creates    int `json:"creates"`
	Updates    int `json:"updates"`
	Skips      int `json:"skips"`
	Conflicts  int `json:"conflicts"`
	Applied    int `json:"applied"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// RunResult is the full report of one engine run, handed to the audit sinks.
type RunResult struct {
	RunID      string         `json:"run_id"`
	Unit       string         `json:"unit"`
	Mode       Mode           `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Changes    ChangeSet      `json:"changes"`
	Outcomes   []Outcome      `json:"outcomes"`
	Duplicates []DuplicateKey `json:"duplicates,omitempty"`
	Summary    Summary        `json:"summary"`

	// Aborted is set when the run terminated before Apply (source read,
	// mapping, or pagination failure). Error carries the reason.
	Aborted bool   `json:"aborted,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *RunResult) summarize() {
	r.Summary.Creates = len(r.Changes.Creates)
	r.Summary.Updates = len(r.Changes.Updates)
	r.Summary.Skips = len(r.Changes.Skips)
	r.Summary.Conflicts = len(r.Changes.Conflicts)
	r.Summary.Duplicates = len(r.Duplicates)
	for _, o := range r.Outcomes {
		if o.Status == StatusApplied {
			r.Summary.Applied++
		} else {
			r.Summary.Failed++
		}
	}
}
