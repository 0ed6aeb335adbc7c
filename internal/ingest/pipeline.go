// Package ingest turns raw spreadsheet exports into validated catalog snapshots.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
)

// Format describes how a Payload carries its rows.
type Format int

const (
	// FormatCSV payloads carry the raw export text in Text.
	FormatCSV Format = iota + 1
	// FormatValues payloads carry pre-split cells in Rows.
	FormatValues
)

// Payload is the raw, unparsed body of one successful remote fetch.
type Payload struct {
	Format Format
	Text   string
	Rows   [][]string
	// Numbers is the transport's native number mode.
	Numbers NumberMode
}

// Source fetches the raw payload of a dataset. Implementations must wrap
// every transport failure in ErrNetwork.
type Source interface {
	Name() string
	Fetch(ctx context.Context, dataset model.DatasetID) (Payload, error)
}

// Drop reasons reported to metrics.
const (
	dropShort   = "short_row"
	dropUnnamed = "unnamed"
	dropParse   = "parse"
	dropInvalid = "invalid"
)

// Pipeline fetches a dataset and materializes it as a remote snapshot.
type Pipeline struct {
	source   Source
	numbers  NumberMode
	validate *validator.Validate
	logger   logger.Logger
	now      func() time.Time
}

// NewPipeline creates a pipeline reading from src.
func NewPipeline(src Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  src,
		numbers: NumbersNative,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.validate == nil {
		p.validate = NewValidator()
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("ingest")
	}
	return p
}

// SourceName reports the name of the underlying source.
func (p *Pipeline) SourceName() string { return p.source.Name() }

// Fetch retrieves and parses one dataset. Errors wrap ErrNetwork or
// ErrEmptyDataset; rejected rows are logged and counted, never returned.
func (p *Pipeline) Fetch(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	if _, err := SchemaFor(dataset); err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := p.source.Fetch(ctx, dataset)
	metrics.RecordFetchLatency(string(dataset), float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFetch(string(dataset), "network")
		if !errors.Is(err, ErrNetwork) {
			err = fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, fmt.Errorf("fetch %s from %s: %w", dataset, p.source.Name(), err)
	}

	snap, err := p.Parse(ctx, dataset, payload)
	if err != nil {
		metrics.RecordFetch(string(dataset), "empty")
		return nil, err
	}
	metrics.RecordFetch(string(dataset), "ok")
	return snap, nil
}

// Parse converts a payload into a snapshot with remote provenance.
func (p *Pipeline) Parse(ctx context.Context, dataset model.DatasetID, payload Payload) (*model.Snapshot, error) {
	schema, err := SchemaFor(dataset)
	if err != nil {
		return nil, err
	}

	rows := payloadRows(payload)
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: %w: %d rows including header", dataset, ErrEmptyDataset, len(rows))
	}

	mode := p.numbers
	if mode == NumbersNative {
		mode = payload.Numbers
	}
	if mode == NumbersNative {
		mode = NumbersDecimal
	}

	records := make([]model.DiscRecord, 0, len(rows)-1)
	drops := map[string]int{}
	for i, fields := range rows[1:] {
		row := i + 1
		if len(fields) < schema.MinColumns {
			drops[dropShort]++
			p.logger.Debug(ctx, "skipping short row",
				logger.String("dataset", string(dataset)), logger.Int("row", row), logger.Int("columns", len(fields)))
			continue
		}
		if schema.skip(fields) {
			drops[dropUnnamed]++
			continue
		}

		rec, err := schema.build(row, fields, mode)
		if err != nil {
			drops[dropParse]++
			p.logger.Warn(ctx, "dropping row", logger.String("dataset", string(dataset)), logger.Error(err))
			continue
		}
		if err := p.validate.Struct(rec); err != nil {
			drops[dropInvalid]++
			p.logger.Warn(ctx, "dropping invalid row",
				logger.String("dataset", string(dataset)), logger.Error(&RowError{Row: row, Err: err}))
			continue
		}
		records = append(records, rec)
	}

	dropped := 0
	for reason, n := range drops {
		dropped += n
		metrics.RecordRowsDropped(string(dataset), reason, n)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w: all %d data rows rejected", dataset, ErrEmptyDataset, len(rows)-1)
	}

	p.logger.Info(ctx, "dataset parsed",
		logger.String("dataset", string(dataset)),
		logger.String("numbers", mode.String()),
		logger.Int("records", len(records)),
		logger.Int("dropped", dropped))

	return model.NewSnapshot(dataset, records, p.now(), model.ProvenanceRemote, dropped), nil
}

func payloadRows(payload Payload) [][]string {
	if payload.Format == FormatValues {
		return payload.Rows
	}
	lines := splitLines(payload.Text)
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = ParseLine(l)
	}
	return rows
}
