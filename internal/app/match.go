package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
)

const (
	minSearchLength = 2
	inlineQueryName = "Custom disc"
)

// Search filters the active snapshot of dataset by a case-insensitive
// substring of name, manufacturer or category, in catalog order. limit is
// capped at the configured maximum; zero or less means the maximum.
func (s *Service) Search(ctx context.Context, dataset model.DatasetID, q string, limit int) (types.CatalogPage, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSearchLength {
		return types.CatalogPage{}, fmt.Errorf("%w: search needs at least %d characters", ErrInvalidQuery, minSearchLength)
	}

	o, err := s.orchestrator()
	if err != nil {
		return types.CatalogPage{}, err
	}
	snap, err := o.Catalog(ctx, dataset)
	if err != nil {
		return types.CatalogPage{}, err
	}

	maxResults := s.cfg.MaxSearchResults
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	needle := strings.ToLower(q)
	hits := make([]model.DiscRecord, 0, limit)
	snap.Each(func(_ int, r model.DiscRecord) bool {
		if contains(r.Name, needle) || contains(r.Manufacturer, needle) || contains(r.Category, needle) {
			hits = append(hits, r)
		}
		return len(hits) < limit
	})

	metrics.RecordSearch()
	return page(snap, q, hits), nil
}

func contains(field, lowerNeedle string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerNeedle)
}

// Match ranks the target catalog against the query disc.
func (s *Service) Match(ctx context.Context, q types.MatchQuery) (types.MatchResponse, error) {
	start := time.Now()
	defer func() {
		metrics.RecordMatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	o, err := s.orchestrator()
	if err != nil {
		return types.MatchResponse{}, err
	}

	query, err := s.resolveQuery(ctx, o, q)
	if err != nil {
		return types.MatchResponse{}, err
	}

	target, err := o.Catalog(ctx, model.DatasetTarget)
	if err != nil {
		return types.MatchResponse{}, err
	}

	ranking := s.engine.Rank(query, target.Records())
	if ranking.Best == nil {
		metrics.RecordMatch("empty")
	} else {
		metrics.RecordMatch("ok")
	}

	s.logger.Debug(ctx, "match ranked",
		logger.String("query", query.Name),
		logger.Int("candidates", target.Len()),
		logger.String("provenance", string(target.Provenance())))
	return types.NewMatchResponse(ranking, target), nil
}

// resolveQuery turns a MatchQuery into the disc to rank against.
func (s *Service) resolveQuery(ctx context.Context, o *catalog.Orchestrator, q types.MatchQuery) (model.DiscRecord, error) {
	if q.Disc != nil {
		disc := *q.Disc
		disc.Name = strings.TrimSpace(disc.Name)
		disc.Category = strings.TrimSpace(disc.Category)
		if disc.Name == "" {
			disc.Name = inlineQueryName
		}
		if err := s.validate.Struct(disc); err != nil {
			metrics.RecordMatch("invalid")
			return model.DiscRecord{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return disc, nil
	}

	name := strings.TrimSpace(q.Name)
	if name == "" {
		metrics.RecordMatch("invalid")
		return model.DiscRecord{}, fmt.Errorf("%w: name or disc is required", ErrInvalidQuery)
	}
	manufacturer := strings.TrimSpace(q.Manufacturer)

	ref, err := o.Catalog(ctx, model.DatasetReference)
	if err != nil {
		return model.DiscRecord{}, err
	}

	var found *model.DiscRecord
	ref.Each(func(_ int, r model.DiscRecord) bool {
		if !strings.EqualFold(r.Name, name) {
			return true
		}
		if manufacturer != "" && !strings.EqualFold(r.Manufacturer, manufacturer) {
			return true
		}
		found = &r
		return false
	})
	if found == nil {
		metrics.RecordMatch("not_found")
		if manufacturer != "" {
			return model.DiscRecord{}, fmt.Errorf("%w: %s by %s", ErrDiscNotFound, name, manufacturer)
		}
		return model.DiscRecord{}, fmt.Errorf("%w: %s", ErrDiscNotFound, name)
	}
	return *found, nil
}
