// Package registry is a client for the npm registry search API.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/propagation"
)

// SearchPath is the registry search endpoint, relative to the base URL.
const SearchPath = "/-/v1/search"

// Errors returned by Search. Use errors.Is to test for them.
var (
	ErrUpstream          = errors.New("registry request failed")
	ErrMalformedResponse = errors.New("malformed registry response")
)

// UpstreamError reports a transport failure or a non-2xx status from the
// registry. StatusCode is 0 when no response was received.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("registry returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("registry request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// MalformedResponseError reports a body that is not the expected search shape.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed registry response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// Package is one search hit.
type Package struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Links       Links  `json:"links"`
}

// Links are the package's published URLs.
type Links struct {
	NPM        string `json:"npm,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
	Repository string `json:"repository,omitempty"`
}

type searchResponse struct {
	Objects *[]struct {
		Package *Package `json:"package"`
	} `json:"objects"`
	Total int `json:"total"`
}

// Client queries the registry search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMetrics records upstream latency in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = logger.With().Str("component", "registry").Logger() }
}

// NewClient creates a registry client. A zero timeout keeps the HTTP client
// default (no timeout).
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL returns the request URL for a query.
func (c *Client) SearchURL(text string, size int) string {
	q := url.Values{}
	q.Set("text", text)
	q.Set("size", strconv.Itoa(size))
	return c.baseURL + SearchPath + "?" + q.Encode()
}

// Search issues exactly one GET for text and returns the packages in the
// order the registry returned them.
func (c *Client) Search(ctx context.Context, text string, size int) ([]Package, error) {
	reqURL := c.SearchURL(text, size)

	ctx, span := tracing.StartRegistrySpan(ctx, text, reqURL)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordRegistryRequest(status, time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		err = &UpstreamError{Err: err}
		tracing.RecordError(span, err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectHTTPHeaders(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = &UpstreamError{Err: err}
		tracing.RecordError(span, err)
		c.logger.Warn().Err(err).Str("query", text).Msg("Registry request failed")
		return nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		tracing.RecordError(span, err)
		c.logger.Warn().Int("status", resp.StatusCode).Str("query", text).Msg("Registry returned error status")
		return nil, err
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		err := &MalformedResponseError{Err: err}
		tracing.RecordError(span, err)
		return nil, err
	}
	if parsed.Objects == nil {
		err := &MalformedResponseError{Err: errors.New(`missing "objects" list`)}
		tracing.RecordError(span, err)
		return nil, err
	}

	packages := make([]Package, 0, len(*parsed.Objects))
	for i, obj := range *parsed.Objects {
		if obj.Package == nil {
			err := &MalformedResponseError{Err: fmt.Errorf("objects[%d] has no package", i)}
			tracing.RecordError(span, err)
			return nil, err
		}
		packages = append(packages, *obj.Package)
	}

	span.SetAttributes(tracing.AttrResultCount.Int(len(packages)))
	tracing.SetSpanOK(span)

	c.logger.Debug().
		Str("query", text).
		Int("results", len(packages)).
		Dur("duration", time.Since(start)).
		Msg("Registry search completed")

	return packages, nil
}
