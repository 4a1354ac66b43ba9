package engine

import "context"

// RecordStore gives the engine uniform read/write access to one side of a
// sync unit. Implementations classify their failures as TransientError
// (retryable) or PermanentError (not retryable); every call must honor the
// context and carry its own timeout.
type RecordStore interface {
	// Name identifies the store in logs and audit output (e.g., "sheet:CCP").
	Name() string

	// ReadAll produces the store's full record set. filter is opaque to the
	// engine: an optional delta watermark or query string interpreted by the
	// store. Empty filter means everything.
	ReadAll(ctx context.Context, filter string) ([]Record, error)

	// ReadPage reads one page of records. An empty token requests the first
	// page; an empty next token signals exhaustion. Used by PaginatedWriter.
	ReadPage(ctx context.Context, token string) (records []Record, next string, err error)

	// Create inserts a new record and returns the store-assigned id.
	Create(ctx context.Context, rec Record) (string, error)

	// Update overwrites the given fields of an existing record.
	Update(ctx context.Context, id string, rec Record) error
}
