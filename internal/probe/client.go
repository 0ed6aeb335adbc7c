package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
)

const maxBody = 4 << 20

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client talks to a running discmatch service.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.do(ctx, http.MethodGet, "/healthz", &out)
}

// Status fetches /status.
func (c *Client) Status(ctx context.Context) (catalog.Status, error) {
	var st catalog.Status
	err := c.do(ctx, http.MethodGet, "/status", &st)
	return st, err
}

// Catalog fetches every record of dataset.
func (c *Client) Catalog(ctx context.Context, dataset model.DatasetID) (types.CatalogPage, error) {
	var page types.CatalogPage
	err := c.do(ctx, http.MethodGet, "/catalog/"+url.PathEscape(string(dataset)), &page)
	return page, err
}

// Match ranks the target catalog against a reference disc by name.
func (c *Client) Match(ctx context.Context, name, manufacturer string) (types.MatchResponse, error) {
	q := url.Values{}
	q.Set("name", name)
	if manufacturer != "" {
		q.Set("manufacturer", manufacturer)
	}
	var resp types.MatchResponse
	err := c.do(ctx, http.MethodGet, "/match?"+q.Encode(), &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
