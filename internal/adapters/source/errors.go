package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for source errors.
var (
	ErrUnknownDataset = errors.New("dataset not served by this source")
	ErrDecode         = errors.New("decode response failed")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s)", e.Code, e.Status)
}
