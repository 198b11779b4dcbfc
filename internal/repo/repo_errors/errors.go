package repo_errors

import "errors"

var (
	ErrNotFound = errors.New("entity not found")

	// ErrNoRowsAffected is returned by conditional writes when the row no
	// longer matches the expected state. The caller re-reads and classifies.
	ErrNoRowsAffected = errors.New("conditional update affected no rows")
)
