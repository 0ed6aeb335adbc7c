package model

// MatchResult is one scored candidate.
type MatchResult struct {
	Disc           DiscRecord
	Score          float64  // [0,1]
	Percentage     int      // round(Score*100)
	CategoryCompat float64  // [0,1]
	Reasons        []string // human readable hints, never empty
}

// Ranking is the engine's answer for one query.
type Ranking struct {
	Query DiscRecord
	// Best is nil when there were no candidates.
	Best       *MatchResult
	Alternates []MatchResult
}
