// Package audit defines the run-audit collaborator contract. The engine
// produces a RunResult; audit sinks persist or emit it. Sinks are
// best-effort by design: an audit failure must never abort a sync run.
package audit
