package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tablesync/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tunes per-run behavior beyond the mapping and mode.
type Options struct {
	// Filter is an opaque delta window passed to the remote ReadAll in pull
	// mode (e.g., a watermark or query string). Supplied by the caller; the
	// engine never tracks it between runs.
	Filter string

	// SkipEmptyOverwrite suppresses updates that would replace a non-empty
	// remote value with an empty local one. Push mode only; protects
	// against partial local exports blanking remote data.
	SkipEmptyOverwrite bool

	// Retry bounds transient-failure retries during Apply.
	Retry RetryPolicy
}

// Engine orchestrates one sync unit: two stores, a mapping, a mode. A single
// Engine value is safe to reuse across runs; each Run re-reads both sides
// from scratch.
type Engine struct {
	unit     string
	mode     Mode
	local    RecordStore
	remote   RecordStore
	mapping  Mapping
	resolver Resolver
	opts     Options
	log      *zap.Logger
}

// New validates the mapping against the mode and builds an Engine.
func New(unit string, mode Mode, local, remote RecordStore, mapping Mapping, policy Policy, opts Options, log *zap.Logger) (*Engine, error) {
	if err := mapping.Validate(mode); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		unit:     unit,
		mode:     mode,
		local:    local,
		remote:   remote,
		mapping:  mapping,
		resolver: Resolver{Mapping: mapping, Policy: policy},
		opts:     opts,
		log:      log.With(zap.String("unit", unit), zap.String("mode", string(mode))),
	}, nil
}

// Run executes one single-pass reconciliation: Read -> Match -> Decide ->
// Apply -> Report. The returned RunResult is always non-nil so an aborted
// run can still be audited; the error is non-nil only when the run aborted
// before Apply.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	res := &RunResult{
		RunID:     newRunID(),
		Unit:      e.unit,
		Mode:      e.mode,
		StartedAt: time.Now(),
	}
	log := e.log.With(zap.String("run_id", res.RunID))
	log.Info("run started",
		zap.String("local", e.local.Name()),
		zap.String("remote", e.remote.Name()),
	)

	// Read phase: both sides concurrently, barrier before Match.
	var (
		localRecs  []Record
		remoteRecs []Record
		writer     *PaginatedWriter
		localErr   error
		remoteErr  error
		wg         sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		localRecs, localErr = e.local.ReadAll(ctx, "")
	}()
	go func() {
		defer wg.Done()
		switch e.mode {
		case ModePush:
			writer = NewPaginatedWriter(e.remote, e.mapping)
			remoteErr = writer.BuildIndex(ctx)
		case ModePull:
			remoteRecs, remoteErr = e.remote.ReadAll(ctx, e.opts.Filter)
		default:
			remoteRecs, remoteErr = e.remote.ReadAll(ctx, "")
		}
	}()
	wg.Wait()

	if localErr != nil {
		return e.abort(res, fmt.Errorf("local read: %w", localErr))
	}
	if remoteErr != nil {
		return e.abort(res, fmt.Errorf("remote read: %w", remoteErr))
	}
	res.Summary.LocalRows = len(localRecs)
	if e.mode == ModePush {
		res.Summary.RemoteRows = writer.Rows()
	} else {
		res.Summary.RemoteRows = len(remoteRecs)
	}
	if err := ctx.Err(); err != nil {
		return e.abort(res, err)
	}

	// Match + Decide phase.
	var decideErr error
	switch e.mode {
	case ModeAppend:
		decideErr = e.decideAppend(res, localRecs, remoteRecs)
	case ModePull:
		decideErr = e.decidePull(res, localRecs, remoteRecs)
	case ModeTwoWay:
		decideErr = e.decideTwoWay(res, localRecs, remoteRecs)
	case ModePush:
		decideErr = e.decidePush(res, localRecs, writer)
	default:
		decideErr = fmt.Errorf("unknown mode %q", e.mode)
	}
	if decideErr != nil {
		return e.abort(res, decideErr)
	}

	for _, d := range res.Duplicates {
		log.Warn("duplicate sync key",
			zap.String("side", string(d.Side)),
			zap.String("key", d.Key),
			zap.Int("count", d.Count),
		)
	}

	if err := ctx.Err(); err != nil {
		return e.abort(res, err)
	}

	// Apply phase.
	res.Outcomes = e.apply(ctx, &res.Changes, writer)

	// Report.
	res.FinishedAt = time.Now()
	res.summarize()
	log.Info("run finished",
		zap.Int("creates", res.Summary.Creates),
		zap.Int("updates", res.Summary.Updates),
		zap.Int("skips", res.Summary.Skips),
		zap.Int("conflicts", res.Summary.Conflicts),
		zap.Int("failed", res.Summary.Failed),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

func (e *Engine) abort(res *RunResult, err error) (*RunResult, error) {
	res.Aborted = true
	res.Error = err.Error()
	res.FinishedAt = time.Now()
	res.summarize()
	e.log.Error("run aborted", zap.String("run_id", res.RunID), zap.Error(err))
	return res, err
}

// decideAppend emits a create for every local record whose sync key is not
// yet present remotely. Nothing is ever updated; duplicates within the local
// batch resolve first-wins.
func (e *Engine) decideAppend(res *RunResult, localRecs, remoteRecs []Record) error {
	remote := NewDedupeIndex(e.mapping, SideRemote, remoteRecs)
	res.Duplicates = append(res.Duplicates, remote.Duplicates(SideRemote)...)

	batch := make(map[string]struct{})
	for _, rec := range localRecs {
		key := e.mapping.KeyOf(rec, SideLocal)
		if key == "" {
			res.Changes.add(Change{Op: OpSkip, Reason: "missing-key"})
			continue
		}
		if _, dup := batch[key]; dup {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "duplicate-in-batch"})
			continue
		}
		batch[key] = struct{}{}

		if remote.Has(key) {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "already-present"})
			continue
		}

		translated, err := e.mapping.Translate(rec, LocalToRemote)
		if err != nil {
			return err
		}
		remote.Add(key)
		res.Changes.add(Change{Op: OpCreate, Key: key, Target: SideRemote, Record: translated})
	}
	return nil
}

// decidePull mirrors remote records into the local store: absent keys become
// creates, differing mapped fields become updates, identical rows are
// skipped.
func (e *Engine) decidePull(res *RunResult, localRecs, remoteRecs []Record) error {
	localIdx, dups := keyedIndex(e.mapping, SideLocal, localRecs)
	res.Duplicates = append(res.Duplicates, dups...)

	seen := NewDedupeIndex(e.mapping, SideRemote, nil)
	for _, rec := range remoteRecs {
		key := e.mapping.KeyOf(rec, SideRemote)
		if key == "" {
			res.Changes.add(Change{Op: OpSkip, Reason: "missing-key"})
			continue
		}
		if seen.Has(key) {
			seen.Add(key)
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "duplicate-in-batch"})
			continue
		}
		seen.Add(key)

		translated, err := e.mapping.Translate(rec, RemoteToLocal)
		if err != nil {
			return err
		}

		existing, ok := localIdx[key]
		if !ok {
			res.Changes.add(Change{Op: OpCreate, Key: key, Target: SideLocal, Record: translated})
			continue
		}

		payload, diffs := e.diff(existing, translated, SideLocal, diffOpts{excludeKey: true})
		if len(diffs) == 0 {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "identical"})
			continue
		}
		res.Changes.add(Change{
			Op:       OpUpdate,
			Key:      key,
			Target:   SideLocal,
			TargetID: existing.ID,
			Record:   payload,
			Diffs:    diffs,
		})
	}
	res.Duplicates = append(res.Duplicates, seen.Duplicates(SideRemote)...)
	return nil
}

// decideTwoWay reconciles both sides: one-sided keys become creates on the
// other side, matched pairs go through the resolver. The losing side's
// updated-at/by metadata is never overwritten; propagating it would make the
// next run mistake this write-back for a fresh edit.
func (e *Engine) decideTwoWay(res *RunResult, localRecs, remoteRecs []Record) error {
	localIdx, localDups := keyedIndex(e.mapping, SideLocal, localRecs)
	remoteIdx, remoteDups := keyedIndex(e.mapping, SideRemote, remoteRecs)
	res.Duplicates = append(res.Duplicates, localDups...)
	res.Duplicates = append(res.Duplicates, remoteDups...)

	done := make(map[string]struct{}, len(localIdx))
	for _, rec := range localRecs {
		key := e.mapping.KeyOf(rec, SideLocal)
		if key == "" {
			continue
		}
		if _, dup := done[key]; dup {
			continue
		}
		done[key] = struct{}{}
		local := localIdx[key]

		remote, ok := remoteIdx[key]
		if !ok {
			translated, err := e.mapping.Translate(local, LocalToRemote)
			if err != nil {
				return err
			}
			res.Changes.add(Change{Op: OpCreate, Key: key, Target: SideRemote, Record: translated})
			continue
		}

		if err := e.decidePair(res, key, local, remote); err != nil {
			return err
		}
	}

	for _, rec := range remoteRecs {
		key := e.mapping.KeyOf(rec, SideRemote)
		if key == "" {
			continue
		}
		if _, matched := done[key]; matched {
			continue
		}
		done[key] = struct{}{}

		translated, err := e.mapping.Translate(remoteIdx[key], RemoteToLocal)
		if err != nil {
			return err
		}
		res.Changes.add(Change{Op: OpCreate, Key: key, Target: SideLocal, Record: translated})
	}
	return nil
}

func (e *Engine) decidePair(res *RunResult, key string, local, remote Record) error {
	decision := e.resolver.Resolve(local, remote)

	switch decision.Winner {
	case WinnerLocal:
		translated, err := e.mapping.Translate(local, LocalToRemote)
		if err != nil {
			return err
		}
		payload, diffs := e.diff(remote, translated, SideRemote, diffOpts{excludeMeta: true, excludeKey: true})
		if len(diffs) == 0 {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "identical", Decision: &decision})
			return nil
		}
		targetID := e.remoteIDOf(local, remote)
		if targetID == "" {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "missing-target-id", Decision: &decision})
			return nil
		}
		res.Changes.add(Change{
			Op: OpUpdate, Key: key, Target: SideRemote, TargetID: targetID,
			Record: payload, Diffs: diffs, Decision: &decision,
		})

	case WinnerRemote:
		translated, err := e.mapping.Translate(remote, RemoteToLocal)
		if err != nil {
			return err
		}
		payload, diffs := e.diff(local, translated, SideLocal, diffOpts{excludeMeta: true, excludeKey: true})
		if len(diffs) == 0 {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "identical", Decision: &decision})
			return nil
		}
		res.Changes.add(Change{
			Op: OpUpdate, Key: key, Target: SideLocal, TargetID: local.ID,
			Record: payload, Diffs: diffs, Decision: &decision,
		})

	default:
		res.Changes.add(Change{Op: OpConflict, Key: key, Reason: decision.Reason, Decision: &decision})
	}
	return nil
}

// remoteIDOf picks the remote row id for a matched pair. The remote store's
// own id is authoritative; the local mirror field is only a pre-creation
// fallback.
func (e *Engine) remoteIDOf(local, remote Record) string {
	if remote.ID != "" {
		return remote.ID
	}
	if e.mapping.RemoteIDField != "" {
		return local.Field(e.mapping.RemoteIDField)
	}
	return ""
}

// decidePush pushes local records against the writer's full-table index:
// known keys become updates to the existing row id, unknown keys become
// creates. Rerunning with no local edits therefore yields zero creates.
func (e *Engine) decidePush(res *RunResult, localRecs []Record, writer *PaginatedWriter) error {
	res.Duplicates = append(res.Duplicates, writer.Duplicates()...)

	batch := make(map[string]struct{})
	for _, rec := range localRecs {
		key := e.mapping.KeyOf(rec, SideLocal)
		if key == "" {
			res.Changes.add(Change{Op: OpSkip, Reason: "missing-key"})
			continue
		}
		if _, dup := batch[key]; dup {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "duplicate-in-batch"})
			continue
		}
		batch[key] = struct{}{}

		translated, err := e.mapping.Translate(rec, LocalToRemote)
		if err != nil {
			return err
		}

		id, existing, ok := writer.Lookup(key)
		if !ok {
			res.Changes.add(Change{Op: OpCreate, Key: key, Target: SideRemote, Record: translated})
			continue
		}

		payload, diffs := e.diff(existing, translated, SideRemote, diffOpts{
			excludeKey: true,
			skipEmpty:  e.opts.SkipEmptyOverwrite,
		})
		if len(diffs) == 0 {
			res.Changes.add(Change{Op: OpSkip, Key: key, Reason: "identical"})
			continue
		}
		res.Changes.add(Change{
			Op: OpUpdate, Key: key, Target: SideRemote, TargetID: id,
			Record: payload, Diffs: diffs,
		})
	}
	return nil
}

type diffOpts struct {
	// excludeMeta leaves updated-at/by fields untouched on the target.
	excludeMeta bool
	// excludeKey never rewrites the sync key column on an update.
	excludeKey bool
	// skipEmpty suppresses replacing a non-empty value with an empty one.
	skipEmpty bool
}

// diff compares a desired record (already in the target vocabulary) against
// the existing target record and returns the minimal update payload plus the
// field-level changes for audit. Fields compare equal after type
// normalization.
func (e *Engine) diff(existing, desired Record, target Side, opts diffOpts) (Record, []FieldChange) {
	payload := Record{Fields: make(map[string]any)}
	var diffs []FieldChange

	for _, local := range e.mapping.LocalFields() {
		if opts.excludeMeta && e.mapping.IsMeta(local) {
			continue
		}
		if opts.excludeKey && local == e.mapping.SyncKeyField {
			continue
		}

		name := e.mapping.FieldName(local, target)
		oldVal, newVal := existing.Fields[name], desired.Fields[name]

		newStr := strings.TrimSpace(utils.ToString(newVal))
		oldStr := strings.TrimSpace(utils.ToString(oldVal))
		if opts.skipEmpty && newStr == "" && oldStr != "" {
			continue
		}
		if valuesEqual(oldVal, newVal) {
			continue
		}

		payload.Fields[name] = newVal
		diffs = append(diffs, FieldChange{Field: local, Old: oldStr, New: newStr})
	}
	return payload, diffs
}

// apply executes the decided writes record by record. Transient failures
// retry with bounded backoff; permanent failures mark the record failed and
// the run continues. Cancellation marks the remaining writes failed rather
// than leaving them unreported.
func (e *Engine) apply(ctx context.Context, cs *ChangeSet, writer *PaginatedWriter) []Outcome {
	writes := cs.Writes()
	outcomes := make([]Outcome, 0, len(writes))

	for i, c := range writes {
		if err := ctx.Err(); err != nil {
			for _, rest := range writes[i:] {
				outcomes = append(outcomes, Outcome{
					Key: rest.Key, Op: rest.Op, Target: rest.Target,
					Status: StatusFailed, Error: "canceled",
				})
			}
			break
		}

		out := Outcome{Key: c.Key, Op: c.Op, Target: c.Target}
		store := e.storeFor(c.Target)

		attempts, err := e.opts.Retry.Do(ctx, func() error {
			switch {
			case c.Op == OpCreate && writer != nil && c.Target == SideRemote:
				id, createErr := writer.Create(ctx, c.Key, c.Record)
				out.AssignedID = id
				return createErr
			case c.Op == OpCreate:
				id, createErr := store.Create(ctx, c.Record)
				out.AssignedID = id
				return createErr
			default:
				return store.Update(ctx, c.TargetID, c.Record)
			}
		})
		out.Attempts = attempts
		if err != nil {
			out.Status = StatusFailed
			out.Error = err.Error()
			e.log.Warn("apply failed",
				zap.String("key", c.Key),
				zap.String("op", string(c.Op)),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
		} else {
			out.Status = StatusApplied
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (e *Engine) storeFor(side Side) RecordStore {
	if side == SideLocal {
		return e.local
	}
	return e.remote
}

func newRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
