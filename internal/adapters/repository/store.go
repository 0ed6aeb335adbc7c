// Package repository holds the time-boxed snapshot cache sitting between the
// ingestion pipeline and the catalog orchestrator.
package repository

import (
	"context"

	"github.com/okian/discmatch/internal/domain/model"
)

// OutcomeKind says how a lookup was satisfied.
type OutcomeKind int

const (
	// OutcomeFresh means the snapshot was just fetched from the remote.
	OutcomeFresh OutcomeKind = iota + 1
	// OutcomeCached means a snapshot inside the TTL was returned unchanged.
	OutcomeCached
	// OutcomeStale means the fetch failed and an older snapshot was served.
	OutcomeStale
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFresh:
		return "fresh"
	case OutcomeCached:
		return "cached"
	case OutcomeStale:
		return "stale"
	}
	return "unknown"
}

// Outcome is the result of a successful lookup.
type Outcome struct {
	Snapshot *model.Snapshot
	Kind     OutcomeKind
	// Err is the fetch failure absorbed by a stale outcome.
	Err error
}

// Fetcher produces remote snapshots; ingest.Pipeline satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error)
}

// Store caches one snapshot per dataset.
type Store interface {
	// GetOrFetch returns the cached snapshot while it is younger than the TTL.
	// Otherwise it fetches; on failure it serves the previous snapshot tagged
	// stale-cache, and only errors when there is nothing to serve.
	GetOrFetch(ctx context.Context, dataset model.DatasetID) (Outcome, error)

	// Refresh fetches regardless of age, storing the result on success.
	// Failures are returned as is; no stale snapshot is served.
	Refresh(ctx context.Context, dataset model.DatasetID) (Outcome, error)

	// Invalidate forgets the dataset's snapshot without refetching.
	Invalidate(ctx context.Context, dataset model.DatasetID)

	// Peek returns the stored snapshot without fetching. Returns ErrNotCached
	// when the slot is empty.
	Peek(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error)
}
