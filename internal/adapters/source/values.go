package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/ingest"
)

// ValuesAPI reads a dataset through the keyed spreadsheet values endpoint.
type ValuesAPI struct {
	transport     *Transport
	baseURL       string
	spreadsheetID string
	apiKey        string
	sheets        map[model.DatasetID]string
}

// valuesResponse is the subset of the values endpoint body we use.
type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// Ranges per dataset, wide enough for each positional schema.
var valueRanges = map[model.DatasetID]string{
	model.DatasetReference: "A:G",
	model.DatasetTarget:    "A:H",
}

// NewValuesAPI creates a values API source. sheets maps datasets to sheet names.
func NewValuesAPI(t *Transport, baseURL, spreadsheetID, apiKey string, sheets map[model.DatasetID]string) *ValuesAPI {
	cp := make(map[model.DatasetID]string, len(sheets))
	for k, v := range sheets {
		cp[k] = v
	}
	return &ValuesAPI{
		transport:     t,
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		sheets:        cp,
	}
}

// Name implements ingest.Source.
func (s *ValuesAPI) Name() string { return "values-api" }

// URL returns the values address of dataset.
func (s *ValuesAPI) URL(dataset model.DatasetID) (string, error) {
	sheet, ok := s.sheets[dataset]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
	}
	rng := sheet + "!" + valueRanges[dataset]
	q := url.Values{}
	q.Set("key", s.apiKey)
	return fmt.Sprintf("%s/%s/values/%s?%s", s.baseURL, url.PathEscape(s.spreadsheetID), url.PathEscape(rng), q.Encode()), nil
}

// Fetch implements ingest.Source. Values numbers are read as decimals.
func (s *ValuesAPI) Fetch(ctx context.Context, dataset model.DatasetID) (ingest.Payload, error) {
	u, err := s.URL(dataset)
	if err != nil {
		return ingest.Payload{}, err
	}
	body, err := s.transport.Get(ctx, u)
	if err != nil {
		return ingest.Payload{}, err
	}

	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ingest.Payload{}, fmt.Errorf("%w: %w: %w", ingest.ErrNetwork, ErrDecode, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = cellString(c)
		}
		rows[i] = cells
	}
	return ingest.Payload{Format: ingest.FormatValues, Rows: rows, Numbers: ingest.NumbersDecimal}, nil
}

// cellString renders a decoded JSON cell as text.
func cellString(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
