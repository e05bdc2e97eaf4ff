// Package yahoo implements the outbound adapter for the Yahoo Finance chart
// API (/v8/finance/chart). It translates the API's parallel-array payloads
// into domain bars and maps HTTP and in-band errors to domain errors.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/quantstream/marketd/internal/domain"
	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/platform/httpclient"
	"github.com/quantstream/marketd/internal/ports"
)

// Compile-time interface check.
var _ ports.QuoteClient = (*Client)(nil)

// userAgent identifies us to the upstream; the default Go user agent is
// rejected by some chart API edges.
const userAgent = "marketd/1.0"

// Client fetches daily and intraday OHLCV data from the chart API.
//
// The underlying [httpclient.Client] provides circuit breaking, retry with
// exponential backoff, rate limiting, OpenTelemetry tracing, and health
// checking ([ports.HealthChecker]) for every outbound call.
type Client struct {
	http   *httpclient.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Client that sends requests through the given
// [httpclient.Client]. The client's BaseURL should point to a chart API host
// (e.g. "https://query1.finance.yahoo.com").
func New(client *httpclient.Client, logger *slog.Logger) *Client {
	return &Client{
		http:   client,
		logger: logger,
		now:    time.Now,
	}
}

// DailyHistory fetches the full daily series for the symbol
// (range=max, interval=1d). Returns [domain.ErrNotFound] for symbols the
// upstream does not know.
func (c *Client) DailyHistory(ctx context.Context, symbol string) (market.Series, error) {
	result, err := c.fetch(ctx, symbol, "max", "1d")
	if err != nil {
		return nil, err
	}
	return toDailySeries(result), nil
}

// LatestIntraday fetches today's one-minute bars (range=1d, interval=1m) and
// returns the most recent completed one. The last bar the upstream reports is
// usually still forming, so only bars at least a minute old qualify; ok is
// false when none do.
func (c *Client) LatestIntraday(ctx context.Context, symbol string) (market.Bar, bool, error) {
	result, err := c.fetch(ctx, symbol, "1d", "1m")
	if err != nil {
		return market.Bar{}, false, err
	}

	cutoff := c.now().Add(-time.Minute)
	bars := toIntradayBars(result)
	for i := len(bars) - 1; i >= 0; i-- {
		if !bars[i].Day.After(cutoff) {
			return bars[i], true, nil
		}
	}
	return market.Bar{}, false, nil
}

// fetch executes one chart API call and unwraps the envelope.
func (c *Client) fetch(ctx context.Context, symbol, dataRange, interval string) (*resultDTO, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.http.BaseURL(), url.PathEscape(symbol), dataRange, interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating chart request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		// Do returns both resp and err when retries are exhausted on a
		// retryable status; translate the status instead of the retry error.
		if resp != nil {
			c.closeBody(ctx, resp)
			return nil, translateStatus(resp.StatusCode, symbol)
		}
		c.logger.ErrorContext(ctx, "chart request failed",
			slog.String("symbol", symbol),
			slog.String("interval", interval),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}
	defer c.closeBody(ctx, resp)

	// The chart API reports unknown symbols with a 404 that still carries a
	// decodable envelope; decode before rejecting on status.
	var dto chartResponseDTO
	if decodeErr := json.NewDecoder(resp.Body).Decode(&dto); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, translateStatus(resp.StatusCode, symbol)
		}
		return nil, fmt.Errorf("decoding chart response for %s: %w", symbol, decodeErr)
	}

	if apiErr := dto.Chart.Error; apiErr != nil {
		if apiErr.Code == "Not Found" || resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %s: %w", symbol, apiErr.Description, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("chart API error for %s: %s: %s", symbol, apiErr.Code, apiErr.Description)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, translateStatus(resp.StatusCode, symbol)
	}

	if len(dto.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: empty chart result: %w", symbol, domain.ErrNotFound)
	}
	return &dto.Chart.Result[0], nil
}

func (c *Client) closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.WarnContext(ctx, "failed to close response body",
			slog.Any("error", err),
		)
	}
}

// translateStatus maps chart API status codes to domain errors.
func translateStatus(statusCode int, symbol string) error {
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", symbol, domain.ErrNotFound)
	case statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError:
		return fmt.Errorf("chart API status %d for %s: %w", statusCode, symbol, domain.ErrUnavailable)
	default:
		return fmt.Errorf("chart API status %d for %s", statusCode, symbol)
	}
}
