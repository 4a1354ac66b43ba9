// Package engine provides a generic, stateless reconciliation engine for two
// tabular record stores: a "local" store (typically a spreadsheet tab) and a
// "remote" store (typically an API-backed table).
//
// The engine carries no state between runs. Every run performs a full (or
// filtered) re-read of both sides, matches records by a normalized sync key,
// decides a set of changes, and applies them idempotently. Re-running the
// same unit against unchanged data produces no new creates.
//
// # Architecture
//
// The engine consists of four main components:
//
//  1. RecordStore: uniform read/write access to one side of a sync. Concrete
//     implementations live outside this package (feature/sheets,
//     feature/glide).
//
//  2. Mapping: declarative field-name translation between the two stores,
//     plus role declarations (sync key, remote id, updated-at/by metadata).
//     Mappings are validated once at configuration load.
//
//  3. Resolver: pure last-write-wins conflict resolution for two-way mode,
//     driven by the mapped updated-at timestamps and a configured fallback
//     policy.
//
//  4. PaginatedWriter: wraps the remote store's write path with an
//     exhaustive paginated pre-read so a create decision is never made
//     against a partial view of the remote table.
//
// # Modes
//
// A run executes one of four modes:
//
//   - ModeAppend: append-only ingestion; local records whose sync key is not
//     yet present remotely become creates, everything else is skipped.
//   - ModePull: mirror remote records into the local store, optionally
//     restricted by an opaque delta filter supplied by the caller.
//   - ModeTwoWay: reconcile both sides with timestamp-based last-write-wins;
//     unresolvable pairs are recorded as conflicts, never guessed.
//   - ModePush: push local records to the remote store behind the
//     PaginatedWriter's full-table index, guaranteeing rerun safety.
//
// Each run is single-pass: Read -> Match -> Decide -> Apply -> Report. The
// two source reads run concurrently and both must complete before matching
// begins. Cancellation is honored between phases, never mid-page.
package engine
