package probe

import (
	"time"

	"github.com/okian/discmatch/internal/domain/types"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Workers    int           // Concurrent match requests
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // JSON report path, empty for none
	Verbose    bool          // Log every match
}

// Result is the outcome of matching one reference disc.
type Result struct {
	Name         string               `json:"name"`
	Manufacturer string               `json:"manufacturer,omitempty"`
	Status       int                  `json:"status"`
	Best         string               `json:"best,omitempty"`
	Percentage   int                  `json:"percentage"`
	Latency      time.Duration        `json:"latencyNs"`
	Response     *types.MatchResponse `json:"-"`
	Err          string               `json:"error,omitempty"`
}

// Report summarizes a probe run.
type Report struct {
	BaseURL       string        `json:"baseUrl"`
	SourceInUse   string        `json:"sourceInUse"`
	ReferenceDisc int           `json:"referenceDiscs"`
	Matched       int           `json:"matched"`
	Failed        int           `json:"failed"`
	Violations    []string      `json:"violations"`
	Results       []Result      `json:"results"`
	StartTime     time.Time     `json:"startTime"`
	Duration      time.Duration `json:"durationNs"`
}

// OK reports whether every match succeeded and no invariant was violated.
func (r *Report) OK() bool {
	return r.Failed == 0 && len(r.Violations) == 0
}
