// Package scoring ranks catalog discs by similarity to a query disc.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/discmatch/internal/domain/compat"
	"github.com/okian/discmatch/internal/domain/model"
)

// Default weights of each dimension in the dissimilarity sum. They add up to 1.
const (
	defaultCategoryWeight = 0.40
	defaultSpeedWeight    = 0.15
	defaultGlideWeight    = 0.10
	defaultTurnWeight     = 0.20
	defaultFadeWeight     = 0.15
)

// Default normalizing ranges for flight number differences.
const (
	defaultSpeedRange = 14
	defaultGlideRange = 7
	defaultTurnRange  = 5
	defaultFadeRange  = 4
)

const defaultAlternates = 2

// Weights of each dimension in the dissimilarity sum.
type Weights struct {
	Category, Speed, Glide, Turn, Fade float64
}

// Ranges normalize absolute flight number differences.
type Ranges struct {
	Speed, Glide, Turn, Fade float64
}

// CompatFunc scores two category labels in [0,1].
type CompatFunc func(a, b string) float64

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the dimension weights. Negative values are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Category >= 0 && w.Speed >= 0 && w.Glide >= 0 && w.Turn >= 0 && w.Fade >= 0 {
			e.weights = w
		}
	}
}

// WithRanges overrides the normalizing ranges. Non-positive values are ignored.
func WithRanges(r Ranges) Option {
	return func(e *Engine) {
		if r.Speed > 0 && r.Glide > 0 && r.Turn > 0 && r.Fade > 0 {
			e.ranges = r
		}
	}
}

// WithCompat replaces the category compatibility model.
func WithCompat(fn CompatFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.compat = fn
		}
	}
}

// WithAlternates sets how many runner-up results Rank returns.
func WithAlternates(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.alternates = n
		}
	}
}

// Engine computes weighted similarity scores. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	weights    Weights
	ranges     Ranges
	compat     CompatFunc
	alternates int
}

// NewEngine creates an Engine with the default weights and ranges.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: Weights{
			Category: defaultCategoryWeight,
			Speed:    defaultSpeedWeight,
			Glide:    defaultGlideWeight,
			Turn:     defaultTurnWeight,
			Fade:     defaultFadeWeight,
		},
		ranges: Ranges{
			Speed: defaultSpeedRange,
			Glide: defaultGlideRange,
			Turn:  defaultTurnRange,
			Fade:  defaultFadeRange,
		},
		compat:     compat.Compatibility,
		alternates: defaultAlternates,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Similarity scores candidate against query.
func (e *Engine) Similarity(query, candidate model.DiscRecord) model.MatchResult {
	catCompat := e.compat(query.Category, candidate.Category)

	dissimilarity := e.weights.Category*(1-catCompat) +
		e.weights.Speed*math.Abs(query.Speed-candidate.Speed)/e.ranges.Speed +
		e.weights.Glide*math.Abs(query.Glide-candidate.Glide)/e.ranges.Glide +
		e.weights.Turn*math.Abs(query.Turn-candidate.Turn)/e.ranges.Turn +
		e.weights.Fade*math.Abs(query.Fade-candidate.Fade)/e.ranges.Fade

	score := math.Max(0, math.Min(1, 1-dissimilarity))

	return model.MatchResult{
		Disc:           candidate,
		Score:          score,
		Percentage:     int(math.Round(score * 100)),
		CategoryCompat: catCompat,
		Reasons:        Explain(query, candidate, catCompat),
	}
}

// Rank scores every candidate and returns the best match plus up to the
// configured number of alternates. Ties keep catalog order. An empty
// candidate set yields a Ranking with a nil Best.
func (e *Engine) Rank(query model.DiscRecord, candidates []model.DiscRecord) model.Ranking {
	ranking := model.Ranking{Query: query}
	if len(candidates) == 0 {
		return ranking
	}

	results := make([]model.MatchResult, len(candidates))
	for i, c := range candidates {
		results[i] = e.Similarity(query, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	best := results[0]
	ranking.Best = &best

	end := 1 + e.alternates
	if end > len(results) {
		end = len(results)
	}
	if end > 1 {
		ranking.Alternates = append([]model.MatchResult(nil), results[1:end]...)
	}
	return ranking
}
