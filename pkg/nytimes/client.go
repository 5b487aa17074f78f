// Package nytimes is the gateway adapter for the NYT Books Best Sellers API.
// It issues a single outbound GET per call and classifies the result. No
// retries: one attempt per inbound request.
package nytimes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nytproxy/bestsellers-proxy/pkg/booksfilter"
)

// DefaultTimeout is the hard wall-clock bound on the outbound call.
const DefaultTimeout = 10 * time.Second

// Prometheus metrics for upstream calls.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyt_upstream_requests_total",
		Help: "Total upstream best-sellers requests by HTTP status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nyt_upstream_request_duration_seconds",
		Help:    "Upstream best-sellers request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyt_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// Book is one best-sellers entry, sourced verbatim from upstream. Decoding
// performs key selection only; values are never transformed.
type Book struct {
	Author string     `json:"author"`
	Title  string     `json:"title"`
	ISBNs  []ISBNPair `json:"isbns"`
}

// ISBNPair is one of a book's ISBN number pairs.
type ISBNPair struct {
	ISBN10 string `json:"isbn10"`
	ISBN13 string `json:"isbn13"`
}

// BestSellersPage is the successful upstream payload. Keys missing from the
// upstream body default to zero / empty.
type BestSellersPage struct {
	NumResults int    `json:"num_results"`
	Results    []Book `json:"results"`
}

// Config holds the adapter configuration.
type Config struct {
	// EndpointURL is the full URL of the upstream best-sellers endpoint.
	EndpointURL string

	// APIKey is sent as the api-key query parameter on every call.
	APIKey string

	// Timeout bounds the outbound call (default: DefaultTimeout).
	Timeout time.Duration
}

// Client calls the upstream best-sellers endpoint. Redirects are not
// followed: a 3xx comes back as a response and is classified, not chased.
type Client struct {
	httpClient  *http.Client
	endpointURL string
	apiKey      string
	logger      zerolog.Logger
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("endpoint URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		endpointURL: cfg.EndpointURL,
		apiKey:      cfg.APIKey,
		logger:      log.With().Str("component", "nyt-client").Logger(),
	}, nil
}

// GetBestSellers issues one GET for the given criteria and returns the parsed
// page, or an *UpstreamError classifying the failure. A single attempt per
// call; the caller decides what a failure means.
func (c *Client) GetBestSellers(ctx context.Context, criteria booksfilter.Criteria) (*BestSellersPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	query := criteria.QueryValues()
	query.Set("api-key", c.apiKey)
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		class := classifyTransportError(err)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()
		upstreamRequestsTotal.WithLabelValues("transport_error").Inc()

		c.logger.Warn().
			Err(err).
			Str("error_class", string(class)).
			Msg("Upstream request failed without a response")

		return nil, &UpstreamError{
			Class:   class,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class := ClassifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Received unexpected response code from NYT API")

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	var page BestSellersPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassAmbiguous)).Inc()

		c.logger.Warn().Err(err).Msg("Failed to decode NYT API response body")

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassAmbiguous,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	if page.Results == nil {
		page.Results = []Book{}
	}
	for i := range page.Results {
		if page.Results[i].ISBNs == nil {
			page.Results[i].ISBNs = []ISBNPair{}
		}
	}

	c.logger.Debug().
		Int("num_results", page.NumResults).
		Dur("duration", time.Since(startTime)).
		Msg("Retrieved best sellers from NYT API")

	return &page, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
