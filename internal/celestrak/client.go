// Package celestrak fetches element sets for individual satellites from
// the CelesTrak GP service, with an optional TTL cache in front of it.
package celestrak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/groundsegment/sattrack/orbit"
)

const defaultFetchTimeout = 10 * time.Second

var (
	// ErrTLENotFound indicates the upstream source has no element set
	// for the requested catalog number.
	ErrTLENotFound = errors.New("no TLE found for catalog number")
	// ErrSourceUnavailable indicates the upstream source could not be
	// reached or returned something unusable.
	ErrSourceUnavailable = errors.New("TLE source unavailable")
)

// TLE is one named element set as served by the GP endpoint.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// MetricsRecorder receives fetch outcomes and cache effectiveness.
type MetricsRecorder interface {
	IncTLEFetch(outcome string)
	SetTLECacheHitRatio(ratio float64)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides the default 10 second request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCache puts a TTL cache in front of the upstream source.
func WithCache(cache *TLECache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithMetricsRecorder attaches an optional fetch metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client retrieves per-satellite element sets.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *TLECache
	metrics    MetricsRecorder
}

// NewClient creates a client for the given base URL, e.g.
// "https://celestrak.org".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultFetchTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTLE retrieves the current element set for one catalog number.
// Results are validated before they are returned or cached, so a
// succeeding call always yields lines the propagator will accept.
func (c *Client) FetchTLE(ctx context.Context, noradID int) (TLE, error) {
	if noradID <= 0 {
		return TLE{}, fmt.Errorf("%w: catalog number %d", ErrTLENotFound, noradID)
	}

	if c.cache != nil {
		if rec, ok := c.cache.Get(noradID); ok {
			c.countFetch("cache_hit")
			return rec, nil
		}
	}

	rec, err := c.fetchUpstream(ctx, noradID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTLENotFound):
			c.countFetch("not_found")
		default:
			c.countFetch("error")
		}
		return TLE{}, err
	}

	if c.cache != nil {
		c.cache.Update(noradID, rec)
	}
	c.countFetch("ok")
	return rec, nil
}

func (c *Client) fetchUpstream(ctx context.Context, noradID int) (TLE, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return TLE{}, fmt.Errorf("%w: bad base URL %q: %v", ErrSourceUnavailable, c.baseURL, err)
	}
	u.Path = path.Join(u.Path, "NORAD/elements/gp.php")
	q := url.Values{}
	q.Set("CATNR", strconv.Itoa(noradID))
	q.Set("FORMAT", "TLE")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return TLE{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TLE{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TLE{}, fmt.Errorf("%w: unexpected status %d from %s", ErrSourceUnavailable, resp.StatusCode, u.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TLE{}, fmt.Errorf("%w: reading response: %v", ErrSourceUnavailable, err)
	}

	return parseGPResponse(body, noradID)
}

// parseGPResponse interprets the GP endpoint's plain-text reply: a
// name line followed by the two element lines, or the literal phrase
// "No GP data found" when the catalog number is unknown.
func parseGPResponse(body []byte, noradID int) (TLE, error) {
	text := strings.TrimSpace(string(body))
	if text == "" || strings.Contains(text, "No GP data found") {
		return TLE{}, fmt.Errorf("%w: %d", ErrTLENotFound, noradID)
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimRight(raw, "\r"); line != "" {
			lines = append(lines, line)
		}
	}

	var rec TLE
	switch {
	case len(lines) >= 3:
		rec = TLE{
			Name:  strings.TrimSpace(lines[0]),
			Line1: strings.TrimSpace(lines[1]),
			Line2: strings.TrimSpace(lines[2]),
		}
	case len(lines) == 2:
		rec = TLE{
			Line1: strings.TrimSpace(lines[0]),
			Line2: strings.TrimSpace(lines[1]),
		}
	default:
		return TLE{}, fmt.Errorf("%w: response for %d is not a TLE", ErrSourceUnavailable, noradID)
	}

	parsed, err := orbit.ParseTLE(rec.Line1, rec.Line2)
	if err != nil {
		return TLE{}, fmt.Errorf("%w: response for %d failed validation: %v", ErrSourceUnavailable, noradID, err)
	}
	if parsed.CatalogNumber != noradID {
		return TLE{}, fmt.Errorf("%w: asked for %d, got %d", ErrSourceUnavailable, noradID, parsed.CatalogNumber)
	}
	return rec, nil
}

func (c *Client) countFetch(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncTLEFetch(outcome)
	if c.cache != nil {
		c.metrics.SetTLECacheHitRatio(c.cache.HitRatio())
	}
}
