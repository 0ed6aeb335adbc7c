package ingest

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ingestion errors. These allow errors.Is/As from callers.
var (
	// ErrNetwork covers every transport failure: unreachable host, timeout,
	// non-2xx status, open circuit or an undecodable body.
	ErrNetwork = errors.New("network error")
	// ErrEmptyDataset means no usable data rows followed the header.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrParse marks a single rejected row. It never escapes Pipeline.Fetch.
	ErrParse = errors.New("parse error")
)

// RowError describes why one row was rejected.
type RowError struct {
	Row    int    // 1-based data row number, header excluded
	Column string // offending column, empty when the row as a whole is invalid
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: column %s=%q: %v", e.Row, e.Column, e.Value, e.Err)
}

// Unwrap lets errors.Is match both ErrParse and the underlying cause.
func (e *RowError) Unwrap() []error { return []error{ErrParse, e.Err} }
