// Package catalog provides the HTTP client for the TuneCore community songs
// API: query serialization, envelope decoding and error classification.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/tunecore-collector/pkg/cache"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the community API root.
const DefaultBaseURL = "https://www.tunecore.co.jp/api/v2/community"

// songsEndpoint is appended to the base URL for every songs request.
const songsEndpoint = cache.SongsEndpoint

// Prometheus metrics for catalog requests.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunecore_requests_total",
		Help: "Total catalog requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tunecore_request_duration_seconds",
		Help:    "Catalog request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunecore_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the community API root, without trailing slash
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout per HTTP request (transport level)
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests client-side. 0 disables pacing.
	RequestsPerSecond float64

	// Cache serves Search responses when set. Songs and FetchPage never use it.
	Cache    *cache.Manager
	CacheTTL time.Duration
}

// DefaultConfig returns a default configuration without cache or pacing.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "tunecore-collector/0.1.0",
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// Client issues requests against the songs endpoint.
// It performs no retries: callers decide what to do with a failure.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidBaseURL)
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("%w: must be http(s): %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("%w: requests_per_second must be >= 0 (got %v)", ErrInvalidPacing, cfg.RequestsPerSecond)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logging.NewLogger(logging.ComponentCatalog),
	}, nil
}

// Songs performs one songs request and decodes the envelope.
func (c *Client) Songs(ctx context.Context, q SongQuery) (*Page, error) {
	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodePage(body, pageOf(q))
}

// FetchPage requests the given page of q.
func (c *Client) FetchPage(ctx context.Context, q SongQuery, page int) (*Page, error) {
	return c.Songs(ctx, q.WithPage(page))
}

// Search behaves like Songs but is served from the response cache when the
// client has one. Cache failures are logged and fall through to the API.
func (c *Client) Search(ctx context.Context, q SongQuery) (*Page, error) {
	if c.cache == nil {
		return c.Songs(ctx, q)
	}

	key := cache.SearchKey(q.Values())

	entry, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		page, decodeErr := decodePage(entry.Data, pageOf(q))
		if decodeErr == nil {
			c.logger.Debug().Str("key", key.String()).Msg("Search served from cache")
			return page, nil
		}
		c.logger.Warn().Err(decodeErr).Msg("Dropping undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
	case !errors.Is(err, cache.ErrCacheMiss):
		c.logger.Warn().Err(err).Msg("Cache get error")
	}

	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(body, pageOf(q))
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, cache.NewEntry(body, c.config.CacheTTL)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache search response")
	}

	return page, nil
}

// ClearSearchCache drops every cached search response. It returns 0 when the
// client has no cache.
func (c *Client) ClearSearchCache(ctx context.Context) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.Invalidate(ctx)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// get executes the request and returns the raw body of a 2xx response.
func (c *Client) get(ctx context.Context, q SongQuery) ([]byte, error) {
	page := pageOf(q)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.networkError(page, "rate limiter wait", err)
		}
	}

	reqURL := c.config.BaseURL + songsEndpoint + "?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.networkError(page, "create request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("page", page).
		Str("url", reqURL).
		Msg("Executing catalog request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	catalogRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, c.networkError(page, "http request", err)
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		if class == "" {
			class = ErrorClassServer
		}
		catalogErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Catalog request error")

		return nil, &TransportError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkError(page, "read body", err)
	}

	return body, nil
}

func (c *Client) networkError(page int, msg string, err error) error {
	catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	c.logger.Error().Err(err).Int("page", page).Msg("Catalog request failed")
	return &TransportError{
		Page:       page,
		ErrorClass: ErrorClassNetwork,
		Message:    msg,
		Err:        err,
	}
}

// envelope mirrors Page with pointer fields so missing keys can be told
// apart from empty values.
type envelope struct {
	CommunitySongs *[]json.RawMessage `json:"community_songs"`
	Total          *int               `json:"total"`
}

// songKey is decoded ahead of Song so a missing id is not read as 0.
type songKey struct {
	ID *uint64 `json:"id"`
}

func decodePage(body []byte, page int) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, decodeError(page, err)
	}
	if env.CommunitySongs == nil || env.Total == nil {
		return nil, decodeError(page, errors.New("envelope missing community_songs or total"))
	}
	if *env.Total < 0 {
		return nil, decodeError(page, fmt.Errorf("negative total %d", *env.Total))
	}

	songs := make([]Song, 0, len(*env.CommunitySongs))
	for i, raw := range *env.CommunitySongs {
		var key songKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, decodeError(page, fmt.Errorf("song %d: %w", i, err))
		}
		if key.ID == nil {
			return nil, decodeError(page, fmt.Errorf("song %d: missing id", i))
		}

		var song Song
		if err := json.Unmarshal(raw, &song); err != nil {
			return nil, decodeError(page, fmt.Errorf("song %d: %w", i, err))
		}
		songs = append(songs, song)
	}

	return &Page{
		Songs: songs,
		Total: *env.Total,
	}, nil
}

func decodeError(page int, err error) error {
	catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	return &DecodeError{Page: page, Err: err}
}

func pageOf(q SongQuery) int {
	if q.Page <= 0 {
		return DefaultPage
	}
	return q.Page
}
