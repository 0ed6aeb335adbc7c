package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrDiscNotFound = errors.New("disc not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrQueueFull    = errors.New("refresh queue full")
)
