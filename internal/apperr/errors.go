// Package apperr defines the sentinel errors shared across Raido layers.
package apperr

import "errors"

var (
	// ErrStorageUnavailable means the SQLite store could not be opened.
	// Callers fall back to an in-memory dataset for the session.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrWriteFailed means a persist call did not complete. The prior
	// durable data is untouched; the in-memory snapshot stays authoritative.
	ErrWriteFailed = errors.New("write failed")

	// ErrMigrationFailed means the migration could not persist both
	// collections. The on-disk data is left in its legacy shape for retry
	// on the next load.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrImportParse means an import file is structurally unreadable
	// (empty, or missing a header row). The whole import is aborted.
	ErrImportParse = errors.New("import file unreadable")

	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
