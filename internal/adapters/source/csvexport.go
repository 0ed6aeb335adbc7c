package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/ingest"
)

// CSVExport reads a dataset through the public CSV export endpoint of a
// spreadsheet. Each dataset is one sheet addressed by its gid. No auth.
type CSVExport struct {
	transport     *Transport
	baseURL       string
	spreadsheetID string
	gids          map[model.DatasetID]string
}

// NewCSVExport creates a CSV export source. gids maps datasets to sheet gids.
func NewCSVExport(t *Transport, baseURL, spreadsheetID string, gids map[model.DatasetID]string) *CSVExport {
	cp := make(map[model.DatasetID]string, len(gids))
	for k, v := range gids {
		cp[k] = v
	}
	return &CSVExport{
		transport:     t,
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		gids:          cp,
	}
}

// Name implements ingest.Source.
func (s *CSVExport) Name() string { return "csv-export" }

// URL returns the export address of dataset.
func (s *CSVExport) URL(dataset model.DatasetID) (string, error) {
	gid, ok := s.gids[dataset]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
	}
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	return fmt.Sprintf("%s/%s/export?%s", s.baseURL, url.PathEscape(s.spreadsheetID), q.Encode()), nil
}

// Fetch implements ingest.Source. Export numbers are read as leading integers.
func (s *CSVExport) Fetch(ctx context.Context, dataset model.DatasetID) (ingest.Payload, error) {
	u, err := s.URL(dataset)
	if err != nil {
		return ingest.Payload{}, err
	}
	body, err := s.transport.Get(ctx, u)
	if err != nil {
		return ingest.Payload{}, err
	}
	return ingest.Payload{Format: ingest.FormatCSV, Text: string(body), Numbers: ingest.NumbersInteger}, nil
}
