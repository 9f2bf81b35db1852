package types

import "errors"

// Operation errors. Callers classify failures with errors.Is.
var (
	// ErrNotFound is returned when a referenced board or folder has no row.
	ErrNotFound = errors.New("board not found")

	// ErrMalformedInput is returned for unparsable legacy index files,
	// unparsable or unsupported export files, and invalid paths.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStorage wraps failures of the underlying store (open, read, write,
	// transaction). The wrapped message is opaque to callers.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidIndex is returned by a bulk re-index whose items break the
	// folder membership rules.
	ErrInvalidIndex = errors.New("invalid board index")
)

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("board store is detached")
	ErrAlreadyAttached = errors.New("board store is already attached")
)
