package engine

import (
	"context"
)

// pageEntry is one indexed remote row: its store id and its full record,
// kept for field diffing.
type pageEntry struct {
	id  string
	rec Record
}

// PaginatedWriter wraps a remote store's write path with an exhaustive
// paginated pre-read. Before any write is decided, BuildIndex walks every
// page of the remote table and maps normalized sync key -> remote row id
// over the entire dataset, not just the most recent page. This is the
// idempotency guarantee for push mode: a cron rerun never sees a "fresh"
// snapshot missing rows created seconds ago.
type PaginatedWriter struct {
	store   RecordStore
	mapping Mapping

	index map[string]pageEntry
	dedup *DedupeIndex
	rows  int
}

// NewPaginatedWriter creates a writer over the given remote store.
func NewPaginatedWriter(store RecordStore, mapping Mapping) *PaginatedWriter {
	return &PaginatedWriter{
		store:   store,
		mapping: mapping,
		index:   make(map[string]pageEntry),
		dedup:   &DedupeIndex{counts: make(map[string]int)},
	}
}

// BuildIndex reads every remote page until the store signals exhaustion. A
// failed page read aborts with a PaginationError: a partial index must never
// back a create decision. Rows already indexed by row id are not counted
// twice even if a page boundary shifts between fetches.
func (w *PaginatedWriter) BuildIndex(ctx context.Context) error {
	seenIDs := make(map[string]struct{})
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return &PaginationError{Token: token, Err: err}
		}

		records, next, err := w.store.ReadPage(ctx, token)
		if err != nil {
			return &PaginationError{Token: token, Err: err}
		}

		for _, rec := range records {
			if rec.ID != "" {
				if _, dup := seenIDs[rec.ID]; dup {
					continue
				}
				seenIDs[rec.ID] = struct{}{}
			}
			w.rows++

			key := w.mapping.KeyOf(rec, SideRemote)
			if key == "" {
				continue
			}
			w.dedup.Add(key)
			if _, exists := w.index[key]; !exists {
				w.index[key] = pageEntry{id: rec.ID, rec: rec}
			}
		}

		if next == "" {
			return nil
		}
		token = next
	}
}

// Lookup returns the indexed remote row for a normalized key.
func (w *PaginatedWriter) Lookup(key string) (id string, rec Record, ok bool) {
	e, ok := w.index[key]
	return e.id, e.rec, ok
}

// Create inserts a record and registers the assigned id under key, so a
// later create for the same key within this run resolves to an update.
func (w *PaginatedWriter) Create(ctx context.Context, key string, rec Record) (string, error) {
	id, err := w.store.Create(ctx, rec)
	if err != nil {
		return "", err
	}
	w.index[key] = pageEntry{id: id, rec: rec}
	return id, nil
}

// Update writes the given fields to an existing remote row.
func (w *PaginatedWriter) Update(ctx context.Context, id string, rec Record) error {
	return w.store.Update(ctx, id, rec)
}

// Rows returns the number of distinct remote rows seen during BuildIndex.
func (w *PaginatedWriter) Rows() int { return w.rows }

// Duplicates reports remote keys that appeared more than once.
func (w *PaginatedWriter) Duplicates() []DuplicateKey {
	return w.dedup.Duplicates(SideRemote)
}
