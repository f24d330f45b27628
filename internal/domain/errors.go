package domain

import "errors"

// Failure classes for an extraction run. Adapters wrap these with context so
// callers can branch with errors.Is.
var (
	// ErrFileAccess reports an input that cannot be opened or an output that
	// cannot be written.
	ErrFileAccess = errors.New("file access error")

	// ErrSchema reports a source sheet missing one or more required columns.
	ErrSchema = errors.New("schema error")

	// ErrTypeConversion reports a grid cell that is blank or not numeric.
	ErrTypeConversion = errors.New("type conversion error")
)
