// Package telemetry fetches raw ADS-B waypoint data from the upstream
// telemetry service, one hour per request.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/skyward-data/flighttrace/internal/waypoint"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

const (
	// The hourly endpoint addresses an hour as "2025-01-24T06".
	hourLayout = "2006-01-02T15"

	acceptParquet = "application/vnd.apache.parquet"

	hoursPerDay = 24
)

// ErrNoData indicates that every hour of a requested day yielded no
// usable data. Individual hour failures are recovered locally; only a
// fully empty day is fatal.
var ErrNoData = errors.New("no telemetry data fetched for any hour of the day")

// Client fetches telemetry data from the upstream source
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new telemetry client
func NewClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("telemetry-cli"),
	}
}

// FetchHour fetches one hour of telemetry data.
//
// An empty response body means "no data for this hour" and returns a
// nil batch with no error. Non-2xx responses and transport errors are
// returned to the caller.
func (c *Client) FetchHour(ctx context.Context, hour time.Time) (waypoint.Batch, error) {
	q := url.Values{}
	q.Set("date", hour.UTC().Format(hourLayout))
	urlStr := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptParquet)
	req.Header.Set("x-api-key", c.apiKey)

	c.logger.Debug("Fetching telemetry hour",
		logger.String("url", urlStr),
		logger.Time("hour", hour),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(body) == 0 {
		c.logger.Debug("No content for hour", logger.Time("hour", hour))
		return nil, nil
	}

	batch, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched telemetry hour",
		logger.Time("hour", hour),
		logger.Int("waypoint_count", len(batch)),
	)
	return batch, nil
}

// FetchDay fetches all 24 hours of a day concurrently.
//
// Each hour's failure (transport error or processing error) is isolated
// and logged rather than aborting the others; a failed or empty hour
// simply contributes zero rows. There is no per-hour retry. The
// returned batch concatenates hours in completion order, not
// chronological order; callers that need ordering must sort. ErrNoData
// is returned only when every hour yields nothing.
func (c *Client) FetchDay(ctx context.Context, day time.Time) (waypoint.Batch, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	c.logger.Info("Fetching full day of telemetry",
		logger.String("date", start.Format("2006-01-02")),
	)

	results := make(chan waypoint.Batch, hoursPerDay)
	for h := 0; h < hoursPerDay; h++ {
		hour := start.Add(time.Duration(h) * time.Hour)
		go func(hour time.Time) {
			batch, err := c.FetchHour(ctx, hour)
			if err != nil {
				c.logger.Warn("Hour fetch failed, contributing zero rows",
					logger.Time("hour", hour),
					logger.Error(err),
				)
				results <- nil
				return
			}
			results <- batch
		}(hour)
	}

	var all waypoint.Batch
	fetched := 0
	for i := 0; i < hoursPerDay; i++ {
		batch := <-results
		if len(batch) == 0 {
			continue
		}
		fetched++
		all = append(all, batch...)
	}

	if len(all) == 0 {
		return nil, ErrNoData
	}

	c.logger.Info("Day fetch complete",
		logger.String("date", start.Format("2006-01-02")),
		logger.Int("hours_with_data", fetched),
		logger.Int("waypoint_count", len(all)),
	)
	return all, nil
}
