package engine

import (
	"errors"
	"fmt"
)

// TransientError marks a store failure that is worth retrying with backoff:
// network errors, rate limits, 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PermanentError marks a store failure that retrying cannot fix, such as a
// validation rejection. The record is reported failed and the run continues.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// MappingError indicates a configuration mismatch between the mapping and
// the data. It aborts the entire run: every record would fail identically.
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping: field %q: %s", e.Field, e.Reason)
}

// PaginationError indicates the pre-write paginated read of the remote table
// could not complete. Push runs abort on it: deciding creates against a
// partial index risks duplicates.
type PaginationError struct {
	Token string
	Err   error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination: page at token %q: %v", e.Token, e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }
