// Package usgs builds FDSN event queries and fetches their CSV results.
// The ingestion run itself never calls FetchCSV; the analytical session
// reads the query URL directly. The client exists for validation tooling
// that cross-checks landed objects against the source.
package usgs

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-data-ingest/internal/domain"
)

// DefaultBaseURL is the public FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// QueryURL builds the CSV query for a calendar-date window. Dates are in
// a safe character set, so plain substitution is sufficient.
func QueryURL(baseURL string, iv domain.Interval) string {
	return fmt.Sprintf("%s?format=csv&starttime=%s&endtime=%s", baseURL, iv.StartDate(), iv.EndDate())
}

// Client fetches event CSV from the FDSN endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an FDSN event client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchCSV retrieves the raw CSV for an interval. The caller owns the
// returned body.
func (c *Client) FetchCSV(ctx context.Context, iv domain.Interval) (io.ReadCloser, error) {
	u := QueryURL(c.baseURL, iv)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("usgs API error: status %d: %s", resp.StatusCode, body)
	}

	return resp.Body, nil
}

// CountEvents fetches the interval's CSV and returns the number of data
// rows, header excluded.
func (c *Client) CountEvents(ctx context.Context, iv domain.Interval) (int64, error) {
	body, err := c.FetchCSV(ctx, iv)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	r := csv.NewReader(body)
	r.FieldsPerRecord = -1 // raw layer makes no schema promises

	var rows int64
	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read csv: %w", err)
		}
		rows++
	}

	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}
