package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrUnknownDataset = errors.New("unknown dataset")
)
