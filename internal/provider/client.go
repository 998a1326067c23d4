package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"renewable-monitor/internal/auth"
	"renewable-monitor/internal/observability/metrics"
	readings "renewable-monitor/internal/readings/domain"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRetries  = 3
	defaultBackoff  = 500 * time.Millisecond
	defaultPageSize = 500
	defaultMaxPages = 50

	productionPath = "/api/v1/production"
	tokenScope     = "production:read"
)

var (
	// ErrInvalidRange is returned for zero or inverted fetch bounds.
	ErrInvalidRange = errors.New("provider: invalid range")
	// ErrRetriesExhausted wraps the last error once the retry budget is spent.
	ErrRetriesExhausted = errors.New("provider: retries exhausted")
	// ErrPageLimit is returned with the fetched prefix when the provider
	// still reports more pages after MaxPages.
	ErrPageLimit = errors.New("provider: page limit reached")
)

// Config configures the provider client.
type Config struct {
	BaseURL       string
	APIKey        string
	SigningSecret string
	Issuer        string
	Timeout       time.Duration
	Retries       int
	Backoff       time.Duration
	PageSize      int
	MaxPages      int
}

// Client pulls production readings from the provider REST API.
type Client struct {
	baseURL    string
	apiKey     string
	signer     *auth.Signer
	client     *http.Client
	retries    int
	backoff    time.Duration
	pageSize   int
	maxPages   int
	thresholds readings.Thresholds
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewClient constructs a provider client. Readings are classified with thresholds.
func NewClient(cfg Config, thresholds readings.Thresholds, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("provider: empty base url")
	}
	if thresholds == nil {
		thresholds = readings.DefaultThresholds()
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: positiveDuration(cfg.Timeout, defaultTimeout)},
		retries:    defaultRetries,
		backoff:    positiveDuration(cfg.Backoff, defaultBackoff),
		pageSize:   positiveInt(cfg.PageSize, defaultPageSize),
		maxPages:   positiveInt(cfg.MaxPages, defaultMaxPages),
		thresholds: thresholds,
		sleep:      sleepContext,
	}
	if cfg.Retries >= 0 {
		c.retries = cfg.Retries
	}
	if cfg.SigningSecret != "" {
		signer, err := auth.NewSigner([]byte(cfg.SigningSecret), cfg.Issuer, "renewable-monitor", 0)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type productionPage struct {
	Data    []productionItem `json:"data"`
	HasNext bool             `json:"has_next"`
}

type productionItem struct {
	Timestamp time.Time `json:"timestamp"`
	Output    float64   `json:"output"`
	Location  string    `json:"location"`
}

// Fetch pulls every page for source in [start, end). On a failed page, or
// when MaxPages is exhausted, the readings gathered so far are returned
// together with the error.
func (c *Client) Fetch(ctx context.Context, source readings.Source, start, end time.Time) ([]readings.Reading, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, ErrInvalidRange
	}
	if !source.IsValid() {
		return nil, readings.ErrUnknownSource
	}

	began := time.Now()
	var (
		out     []readings.Reading
		skipped int
	)
	defer func() {
		metrics.AddFetchSkipped(string(source), skipped)
	}()

	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, source, start, end, page)
		if err != nil {
			result := metrics.ResultError
			if len(out) > 0 {
				result = metrics.ResultPartial
			}
			metrics.ObserveFetch(string(source), result, time.Since(began))
			return out, fmt.Errorf("provider: %s page %d: %w", source, page, err)
		}
		for _, item := range resp.Data {
			reading, err := readings.NewReading(item.Timestamp, source, item.Output, item.Location, c.thresholds)
			if err != nil {
				skipped++
				continue
			}
			out = append(out, reading)
		}
		if !resp.HasNext {
			metrics.ObserveFetch(string(source), metrics.ResultSuccess, time.Since(began))
			return out, nil
		}
	}
	metrics.ObserveFetch(string(source), metrics.ResultPartial, time.Since(began))
	return out, fmt.Errorf("%w: %s stopped after %d pages", ErrPageLimit, source, c.maxPages)
}

func (c *Client) fetchPage(ctx context.Context, source readings.Source, start, end time.Time, page int) (productionPage, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.IncFetchRetry(string(source))
			if err := c.sleep(ctx, c.backoff<<(attempt-1)); err != nil {
				return productionPage{}, err
			}
		}
		resp, err := c.getPage(ctx, source, start, end, page)
		if err == nil {
			return resp, nil
		}
		if !retryable(ctx, err) {
			return productionPage{}, err
		}
		lastErr = err
	}
	return productionPage{}, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (c *Client) getPage(ctx context.Context, source readings.Source, start, end time.Time, page int) (productionPage, error) {
	query := url.Values{}
	query.Set("source", string(source))
	query.Set("start", start.UTC().Format(time.RFC3339))
	query.Set("end", end.UTC().Format(time.RFC3339))
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+productionPath+"?"+query.Encode(), nil)
	if err != nil {
		return productionPage{}, err
	}
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(req); err != nil {
		return productionPage{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return productionPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return productionPage{}, &StatusError{Code: resp.StatusCode}
	}
	var out productionPage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return productionPage{}, fmt.Errorf("provider: decode page: %w", err)
	}
	return out, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.signer != nil {
		token, err := c.signer.Sign(tokenScope)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return nil
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: http %d", e.Code)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func positiveDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

func positiveInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
