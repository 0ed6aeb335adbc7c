package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, fully materialized view of one dataset as of a
// point in time. A refresh produces a new Snapshot; snapshots are never merged.
type Snapshot struct {
	id         string
	dataset    DatasetID
	records    []DiscRecord
	fetchedAt  time.Time
	provenance Provenance
	dropped    int
}

// NewSnapshot copies records into a new snapshot with a fresh id.
func NewSnapshot(dataset DatasetID, records []DiscRecord, fetchedAt time.Time, provenance Provenance, dropped int) *Snapshot {
	cp := make([]DiscRecord, len(records))
	copy(cp, records)
	return &Snapshot{
		id:         uuid.NewString(),
		dataset:    dataset,
		records:    cp,
		fetchedAt:  fetchedAt,
		provenance: provenance,
		dropped:    dropped,
	}
}

func (s *Snapshot) ID() string             { return s.id }
func (s *Snapshot) Dataset() DatasetID     { return s.dataset }
func (s *Snapshot) FetchedAt() time.Time   { return s.fetchedAt }
func (s *Snapshot) Provenance() Provenance { return s.provenance }
func (s *Snapshot) Len() int               { return len(s.records) }

// Dropped is the number of rows rejected while ingesting this snapshot.
func (s *Snapshot) Dropped() int { return s.dropped }

// Records returns a copy of the snapshot's records.
func (s *Snapshot) Records() []DiscRecord {
	cp := make([]DiscRecord, len(s.records))
	copy(cp, s.records)
	return cp
}

// Each calls fn for every record in order until fn returns false.
func (s *Snapshot) Each(fn func(i int, r DiscRecord) bool) {
	for i, r := range s.records {
		if !fn(i, r) {
			return
		}
	}
}

// WithProvenance returns a copy of s tagged with p. The record slice is shared
// since neither snapshot ever writes to it.
func (s *Snapshot) WithProvenance(p Provenance) *Snapshot {
	cp := *s
	cp.provenance = p
	return &cp
}

// Age reports how old the snapshot is relative to now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.fetchedAt)
}
