// Package types contains the read shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/discmatch/internal/domain/model"
)

// Match is one ranked recommendation.
type Match struct {
	Rank           int              `json:"rank"`
	Disc           model.DiscRecord `json:"disc"`
	Score          float64          `json:"score"`
	Percentage     int              `json:"percentage"`
	CategoryCompat float64          `json:"categoryCompat"`
	Reasons        []string         `json:"reasons"`
}

// NewMatch converts an engine result into its ranked read shape.
func NewMatch(rank int, r model.MatchResult) Match {
	return Match{
		Rank:           rank,
		Disc:           r.Disc,
		Score:          r.Score,
		Percentage:     r.Percentage,
		CategoryCompat: r.CategoryCompat,
		Reasons:        r.Reasons,
	}
}

// MatchQuery selects the query disc: by reference name, optionally narrowed by
// manufacturer, or inline.
type MatchQuery struct {
	Name         string            `json:"name,omitempty"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	Disc         *model.DiscRecord `json:"disc,omitempty"`
}

// MatchResponse is the answer to a MatchQuery.
type MatchResponse struct {
	Query      model.DiscRecord `json:"query"`
	Best       *Match           `json:"best"`
	Alternates []Match          `json:"alternates"`
	Candidates int              `json:"candidates"`
	Provenance model.Provenance `json:"provenance"`
	SnapshotID string           `json:"snapshotId"`
}

// NewMatchResponse flattens a ranking taken against snap.
func NewMatchResponse(r model.Ranking, snap *model.Snapshot) MatchResponse {
	out := MatchResponse{
		Query:      r.Query,
		Alternates: make([]Match, 0, len(r.Alternates)),
		Candidates: snap.Len(),
		Provenance: snap.Provenance(),
		SnapshotID: snap.ID(),
	}
	if r.Best != nil {
		best := NewMatch(1, *r.Best)
		out.Best = &best
	}
	for i, alt := range r.Alternates {
		out.Alternates = append(out.Alternates, NewMatch(i+2, alt))
	}
	return out
}

// CatalogPage is a view of one dataset's active snapshot.
type CatalogPage struct {
	Dataset    model.DatasetID    `json:"dataset"`
	SnapshotID string             `json:"snapshotId"`
	Provenance model.Provenance   `json:"provenance"`
	FetchedAt  time.Time          `json:"fetchedAt"`
	Total      int                `json:"total"`
	Query      string             `json:"query,omitempty"`
	Records    []model.DiscRecord `json:"records"`
}

// Refresh states.
const (
	RefreshCompleted   = "completed"
	RefreshQueued      = "queued"
	RefreshInvalidated = "invalidated"
)

// RefreshResult reports a synchronous refresh or an accepted job.
type RefreshResult struct {
	Dataset    model.DatasetID  `json:"dataset"`
	Status     string           `json:"status"`
	JobID      string           `json:"jobId,omitempty"`
	SnapshotID string           `json:"snapshotId,omitempty"`
	Records    int              `json:"records,omitempty"`
	Provenance model.Provenance `json:"provenance,omitempty"`
}
