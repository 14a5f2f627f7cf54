package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/internal/httpclient"
	"github.com/teranos/chronicle/version"
)

// Content types of the SPARQL 1.1 protocol
const (
	ContentTypeQuery   = "application/sparql-query"
	ContentTypeResults = "application/sparql-results+json"
)

// maxErrorBody bounds how much of a failed response ends up in the error
const maxErrorBody = 512

// Querier runs one SELECT query and returns its rows
type Querier interface {
	Query(ctx context.Context, query string) (*Response, error)
}

// TransportError is a non-success answer from the endpoint
type TransportError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("query endpoint %s answered %s", e.Endpoint, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Config configures a Client
type Config struct {
	Endpoint  string
	UserAgent string        // "" = chronicle/<version>
	Timeout   time.Duration // 0 = no timeout
	// MaxRequestsPerMinute throttles queries; 0 disables throttling
	MaxRequestsPerMinute int
	// AllowPrivate permits endpoints on localhost or private networks
	AllowPrivate bool
	Logger       *zap.SugaredLogger
	// HTTPClient replaces the hardened client, for tests against httptest servers
	HTTPClient *httpclient.SaferClient
}

// Client is a Querier over HTTP POST
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *httpclient.SaferClient
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

// NewClient creates a client for the configured endpoint
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, errors.NewConfigurationError("query endpoint not configured")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = version.Get().UserAgent()
	}

	hc := config.HTTPClient
	if hc == nil {
		blockPrivateIP := !config.AllowPrivate
		hc = httpclient.NewSaferClientWithOptions(config.Timeout, httpclient.SaferClientOptions{
			BlockPrivateIP: &blockPrivateIP,
		})
	}
	if _, err := hc.ValidateURL(config.Endpoint); err != nil {
		return nil, errors.WithHint(
			errors.WrapConfiguration(err, "invalid query endpoint"),
			"set endpoint.allow_private = true for a local Wikibase or QLever instance")
	}

	var limiter *rate.Limiter
	if config.MaxRequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.MaxRequestsPerMinute)/60.0), 1)
	}

	return &Client{
		endpoint:   config.Endpoint,
		userAgent:  userAgent,
		httpClient: hc,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// Endpoint returns the endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query posts the query text and decodes the JSON results.
// Any status other than 200 is a *TransportError marked errors.ErrTransport.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "waiting for query slot"), errors.ErrTransport)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", ContentTypeQuery)
	req.Header.Set("Accept", ContentTypeResults)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debugw("SPARQL query", "endpoint", c.endpoint, "query", query)
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to send query"), errors.ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read response"), errors.ErrTransport)
	}

	if resp.StatusCode != http.StatusOK {
		terr := &TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   c.endpoint,
			Body:       truncate(string(body), maxErrorBody),
		}
		return nil, errors.Mark(errors.WithStack(terr), errors.ErrTransport)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to decode query results"), errors.ErrTransport)
	}

	c.logger.Debugw("SPARQL results",
		"rows", len(out.Results.Bindings),
		"duration_ms", time.Since(started).Milliseconds())

	return &out, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
