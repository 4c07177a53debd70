// Package transport provides the authenticated HTTP layer used to talk to NetBox.
// It owns headers, TLS and tracing; status handling and body decoding are left
// to the API client.
package transport

import (
	"context"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

const tracerName = "github.com/agentstation/netbox-connector/internal/transport"

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	tracer trace.Tracer
}

// New creates a new transport client with the specified authenticator.
// A nil httpClient gets a default client with DefaultHTTPTimeout.
func New(httpClient *http.Client, auth Authenticator) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:   httpClient,
		auth:   auth,
		tracer: otel.Tracer(tracerName),
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do performs an HTTP request with authentication applied and reads the whole body.
// Failures below HTTP are returned as *errors.TransportError; any status is returned
// to the caller as-is.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "netbox.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	c.auth.Apply(req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, errors.NewTransportError(req.Method, req.URL.String(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, errors.NewTransportError(req.Method, req.URL.String(), err)
	}

	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        req.URL.String(),
	}, nil
}

// Get performs a GET request against an absolute URL.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewTransportError(http.MethodGet, url, err)
	}
	return c.Do(ctx, req)
}
