// Package openmeteo fetches hourly temperature and PM2.5 series from the
// Open-Meteo forecast and air-quality APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/observability"
)

// Hourly field selectors.
const (
	FieldTemperature = "temperature_2m"
	FieldPM25        = "pm2_5"
)

// Series kinds used as the metrics "kind" label.
const (
	KindTemperature = "temperature"
	KindAirQuality  = "air_quality"
)

// retryAfterFactor bounds a provider Retry-After to this multiple of
// RetryPolicy.MaxDelay.
const retryAfterFactor = 4

// ErrMalformedResponse is returned for bodies that cannot be parsed into a
// series. It is never retried.
var ErrMalformedResponse = errors.New("malformed open-meteo response")

// StatusError is returned when the provider answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// RetryPolicy bounds the retry loop around a single provider call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration
}

// Options configures a Client.
type Options struct {
	ForecastURL   string
	AirQualityURL string
	Timeout       time.Duration
	Retry         RetryPolicy
}

// Client implements the weather provider used by the fetch pipeline.
type Client struct {
	httpClient    *http.Client
	forecastURL   string
	airQualityURL string
	retry         RetryPolicy
	clock         clockwork.Clock
	jitter        func(limit time.Duration) time.Duration
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		forecastURL:   opts.ForecastURL,
		airQualityURL: opts.AirQualityURL,
		retry:         opts.Retry,
		clock:         clock,
		jitter:        randomJitter,
		metrics:       metrics,
		logger:        logger,
	}
}

// Temperature fetches the hourly 2m temperature series for a coordinate.
func (c *Client) Temperature(ctx context.Context, lat, lon float64) (domain.RawSeries, error) {
	return c.fetchWithRetry(ctx, KindTemperature, c.forecastURL, FieldTemperature, lat, lon)
}

// AirQuality fetches the hourly PM2.5 series for a coordinate.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (domain.RawSeries, error) {
	return c.fetchWithRetry(ctx, KindAirQuality, c.airQualityURL, FieldPM25, lat, lon)
}

func (c *Client) fetchWithRetry(ctx context.Context, kind, baseURL, field string, lat, lon float64) (domain.RawSeries, error) {
	start := c.clock.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(kind).Observe(c.clock.Since(start).Seconds())
	}()

	maxAttempts := max(c.retry.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		series, err := c.fetch(ctx, baseURL, field, lat, lon)
		if err == nil {
			c.metrics.ProviderRequests.WithLabelValues(kind, "success").Inc()
			return series, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			c.metrics.ProviderRequests.WithLabelValues(kind, "error").Inc()
			return domain.RawSeries{}, err
		}
		if attempt >= maxAttempts {
			break
		}

		wait := c.backoff(attempt)
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			wait = c.clampRetryAfter(se.RetryAfter)
		}

		c.metrics.ProviderRetries.WithLabelValues(kind).Inc()
		c.logger.Warn("open-meteo transient failure",
			"field", field,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"retry_in", wait,
			"error", err,
		)

		if err := sleepWithContext(ctx, c.clock, wait); err != nil {
			c.metrics.ProviderRequests.WithLabelValues(kind, "error").Inc()
			return domain.RawSeries{}, err
		}
	}

	c.metrics.ProviderRequests.WithLabelValues(kind, "error").Inc()
	c.logger.Error("open-meteo retries exhausted",
		"field", field,
		"attempts", maxAttempts,
		"error", lastErr,
	)
	return domain.RawSeries{}, fmt.Errorf("open-meteo %s: exhausted %d attempts: %w", field, maxAttempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, baseURL, field string, lat, lon float64) (domain.RawSeries, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return domain.RawSeries{}, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", field)
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.RawSeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawSeries{}, fmt.Errorf("%s request: %w", field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RawSeries{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.clock.Now()),
		}
	}

	return decodeSeries(resp.Body, field)
}

// Open-Meteo API response types.

type response struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

// timeLayouts are tried in order; Open-Meteo emits minute precision without
// a zone suffix when timezone=UTC.
var timeLayouts = []string{"2006-01-02T15:04", time.RFC3339}

func decodeSeries(r io.Reader, field string) (domain.RawSeries, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return domain.RawSeries{}, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	rawTimes, ok := resp.Hourly["time"]
	if !ok {
		return domain.RawSeries{}, fmt.Errorf("%w: missing hourly.time", ErrMalformedResponse)
	}
	rawValues, ok := resp.Hourly[field]
	if !ok {
		return domain.RawSeries{}, fmt.Errorf("%w: missing hourly.%s", ErrMalformedResponse, field)
	}

	var times []string
	if err := json.Unmarshal(rawTimes, &times); err != nil {
		return domain.RawSeries{}, fmt.Errorf("%w: hourly.time: %v", ErrMalformedResponse, err)
	}
	var values []*float64
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return domain.RawSeries{}, fmt.Errorf("%w: hourly.%s: %v", ErrMalformedResponse, field, err)
	}
	if len(times) != len(values) {
		return domain.RawSeries{}, fmt.Errorf("%w: %d timestamps but %d values", ErrMalformedResponse, len(times), len(values))
	}

	series := domain.RawSeries{
		Times:  make([]time.Time, 0, len(times)),
		Values: make([]float64, 0, len(values)),
	}
	for i, s := range times {
		ts, err := parseTimestamp(s)
		if err != nil {
			return domain.RawSeries{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		// Gaps in the provider's data come back as null.
		if values[i] == nil {
			continue
		}
		series.Times = append(series.Times, ts)
		series.Values = append(series.Values, *values[i])
	}
	return series, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Client.Timeout also surfaces as DeadlineExceeded.
		var urlErr *url.Error
		return errors.As(err, &urlErr) && urlErr.Timeout()
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// Transport failures.
	return true
}

func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// backoff is the exponential delay for the given attempt, capped at MaxDelay,
// plus up to MaxJitter of random jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retry.BaseDelay
	for i := 1; i < attempt && delay < c.retry.MaxDelay; i++ {
		delay *= 2
	}
	if c.retry.MaxDelay > 0 && delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	return delay + c.jitter(c.retry.MaxJitter)
}

// clampRetryAfter caps a provider Retry-After at retryAfterFactor times
// MaxDelay. Without a MaxDelay the value is taken as is.
func (c *Client) clampRetryAfter(d time.Duration) time.Duration {
	if c.retry.MaxDelay <= 0 {
		return d
	}
	return min(d, c.retry.MaxDelay*retryAfterFactor)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit + 1)
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
