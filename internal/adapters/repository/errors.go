package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotCached = errors.New("dataset not cached")
)
