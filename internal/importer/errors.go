// Package importer turns an uploaded CSV of leads into store rows. Row-level
// problems are collected and reported in the summary; only malformed input
// and store failures abort the whole run.
package importer

import "fmt"

// ValidationError is a boundary failure: the file itself is unusable. No
// rows are processed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RowError is recoverable: the row is skipped and the message collected
// into the summary. Row numbers are 1-based file lines, so the first data
// row is row 2.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// PersistenceError is fatal for the whole import call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
