package scoring

import (
	"math"

	"github.com/okian/discmatch/internal/domain/model"
)

// Thresholds under which a flight number counts as "close".
const (
	closeSpeed = 1.0
	closeTurn  = 0.5
	closeFade  = 0.5
	closeGlide = 1.0

	similarCategory = 0.7
	relatedCategory = 0.5
)

// Explanation strings returned by Explain.
const (
	ReasonExactCategory   = "Exact disc type match"
	ReasonSimilarCategory = "Similar disc type category"
	ReasonRelatedCategory = "Related disc type"
	ReasonSpeed           = "Similar speed for comparable distance potential"
	ReasonTurn            = "Similar turn behavior during flight"
	ReasonFade            = "Comparable fade at the end of flight"
	ReasonGlide           = "Comparable glide characteristics"
	ReasonFallback        = "Different characteristics but still a viable alternative"
)

// Explain lists why candidate resembles query. It never returns an empty slice.
func Explain(query, candidate model.DiscRecord, catCompat float64) []string {
	var reasons []string

	switch {
	case catCompat == 1:
		reasons = append(reasons, ReasonExactCategory)
	case catCompat >= similarCategory:
		reasons = append(reasons, ReasonSimilarCategory)
	case catCompat >= relatedCategory:
		reasons = append(reasons, ReasonRelatedCategory)
	}

	if math.Abs(query.Speed-candidate.Speed) <= closeSpeed {
		reasons = append(reasons, ReasonSpeed)
	}
	if math.Abs(query.Turn-candidate.Turn) <= closeTurn {
		reasons = append(reasons, ReasonTurn)
	}
	if math.Abs(query.Fade-candidate.Fade) <= closeFade {
		reasons = append(reasons, ReasonFade)
	}
	if math.Abs(query.Glide-candidate.Glide) <= closeGlide {
		reasons = append(reasons, ReasonGlide)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonFallback)
	}
	return reasons
}
