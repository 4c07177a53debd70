// Package netbox is a read-only client for the NetBox REST API.
//
// The client hides pagination: Iterate walks every page of a collection and
// yields records one at a time, whatever shape the endpoint answers with
// (paginated envelope, bare list or single object). GetFirst and GetByID are
// convenience lookups built on the same request path.
package netbox

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/netbox-connector/internal/transport"
	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/metrics"
)

// Config describes how to reach one NetBox instance.
type Config struct {
	// BaseURL is the API root, e.g. https://netbox.example.com/api/.
	BaseURL string
	// Token is sent as "Authorization: Token <value>" when set.
	Token string
	// Verify enables TLS certificate verification.
	Verify bool
	// CABundle is a PEM trust bundle path. Setting it implies verification.
	CABundle string
	// Timeout bounds each HTTP request. Zero means the default of 60 seconds.
	Timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from Config's TLS and timeout
// settings. Tests use it with httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records request, page and record counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to one NetBox instance. It is not safe for concurrent use.
type Client struct {
	cfg        Config
	base       *url.URL
	transport  *transport.Client
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zerolog.Logger
}

// New validates cfg and builds a client. An empty base URL or an unreadable
// trust bundle is a *errors.ConfigError. No request is made.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigError("netbox", "base_url", "NetBox base URL must be provided", nil)
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.NewConfigError("netbox", "base_url", "invalid NetBox base URL", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	c := &Client{cfg: cfg, base: base}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := transport.NewHTTPClient(transport.TLSConfig{
			Verify:   cfg.Verify,
			CABundle: cfg.CABundle,
		}, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}
	c.transport = transport.New(c.httpClient, transport.ForToken(cfg.Token))

	return c, nil
}

// BaseURL returns the normalized base URL, always ending in "/".
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Response is one successful API response.
type Response = transport.Response

// ResolveURL resolves pathOrURL against the base URL and merges params into
// its query. A leading "/" on a relative path is dropped so the path stays
// under the base URL's path; absolute URLs (pagination cursors) replace the
// base entirely.
func (c *Client) ResolveURL(pathOrURL string, params map[string]string) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(pathOrURL, "/"))
	if err != nil {
		return "", errors.NewConfigError("netbox", "resource", "invalid resource path "+pathOrURL, err)
	}
	u := c.base.ResolveReference(ref)
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchPage performs exactly one request. Non-2xx statuses are returned as
// *errors.APIError carrying the decoded error body; failures below HTTP as
// *errors.TransportError.
func (c *Client) FetchPage(ctx context.Context, method, pathOrURL string, params map[string]string) (*Response, error) {
	target, err := c.ResolveURL(pathOrURL, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, errors.NewTransportError(method, target, err)
	}

	log := c.log(ctx)
	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		c.metrics.RecordRequest(0, err)
		log.Debug().Err(err).Str("method", method).Str("url", target).Msg("request failed")
		return nil, err
	}
	c.metrics.RecordRequest(resp.StatusCode, nil)
	log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if !resp.OK() {
		return nil, errors.NewAPIError(method, target, resp.StatusCode, errorPayload(resp.Body))
	}
	return resp, nil
}

// GetFirst returns the first record of resource matching params, or nil when
// there is none. Only pages up to the first non-empty one are requested.
func (c *Client) GetFirst(ctx context.Context, resource string, params map[string]string) (*Record, error) {
	for rec, err := range c.Iterate(ctx, resource, params) {
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, nil
}

// GetByID fetches resource/id/. It returns nil, nil when the API answers 404.
func (c *Client) GetByID(ctx context.Context, resource, id string) (*Record, error) {
	path := strings.TrimRight(resource, "/") + "/" + id + "/"
	resp, err := c.FetchPage(ctx, http.MethodGet, path, nil)
	if err != nil {
		if apiErr, ok := errors.AsAPIError(err); ok && apiErr.IsNotFound() {
			c.log(ctx).Debug().Str("resource", resource).Str("id", id).Msg("object not found")
			return nil, nil
		}
		return nil, err
	}

	data, err := DecodeJSON(resp.Body)
	if err != nil {
		return nil, errors.NewMalformedResponseError(resp.URL, errors.ReasonNotJSON, string(resp.Body), err)
	}
	rec, ok := data.(*Record)
	if !ok {
		return nil, errors.NewMalformedResponseError(resp.URL, errors.ReasonUnexpectedStructure, string(Compact(data)), nil)
	}
	return rec, nil
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if l, ok := logging.Lookup(ctx); ok {
		return l
	}
	if c.logger != nil {
		return c.logger
	}
	return logging.Default()
}

// errorPayload decodes an error body, falling back to {"raw": text}.
func errorPayload(body []byte) any {
	if v, err := DecodeJSON(body); err == nil {
		return v
	}
	return RecordOf("raw", string(body))
}
