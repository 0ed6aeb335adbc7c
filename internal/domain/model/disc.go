// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DatasetID names one of the two independently sourced catalogs.
type DatasetID string

const (
	// DatasetReference is the broad catalog a user picks a known disc from.
	DatasetReference DatasetID = "reference"
	// DatasetTarget is the catalog recommendations are drawn from.
	DatasetTarget DatasetID = "target"
)

// Datasets lists every known dataset in a stable order.
var Datasets = []DatasetID{DatasetReference, DatasetTarget}

// Valid reports whether d is a known dataset.
func (d DatasetID) Valid() bool {
	return d == DatasetReference || d == DatasetTarget
}

func (d DatasetID) String() string { return string(d) }

// ParseDatasetID converts s into a DatasetID, case-insensitively.
func ParseDatasetID(s string) (DatasetID, error) {
	d := DatasetID(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dataset %q", s)
	}
	return d, nil
}

// Provenance records which sourcing tier produced a snapshot.
type Provenance string

const (
	ProvenanceRemote         Provenance = "remote"
	ProvenanceStaleCache     Provenance = "stale-cache"
	ProvenanceStaticFallback Provenance = "static-fallback"
)

// DiscRecord is one catalog item. Records are values and are never mutated
// after ingestion.
type DiscRecord struct {
	Name         string  `json:"name" validate:"required"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Category     string  `json:"category" validate:"required"`
	Speed        float64 `json:"speed" validate:"finite"`
	Glide        float64 `json:"glide" validate:"finite"`
	Turn         float64 `json:"turn" validate:"finite"`
	Fade         float64 `json:"fade" validate:"finite"`

	// Carried through for collaborators; the engine ignores them.
	Description  string  `json:"description,omitempty"`
	ExternalLink string  `json:"externalLink,omitempty"`
	Handle       string  `json:"handle,omitempty"`
	Price        float64 `json:"price,omitempty"`
	InStock      bool    `json:"inStock"`
}

// Handle derives the stable key for a disc name: lowercase, whitespace runs
// become a single '-', everything outside [a-z0-9-] is dropped.
func Handle(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
		inSpace = false
	}
	return b.String()
}

// RefreshJob asks a worker to re-ingest one dataset.
type RefreshJob struct {
	ID          string
	Dataset     DatasetID
	Reason      string
	RequestedAt time.Time
}
