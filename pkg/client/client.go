package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNotFound = errors.New("not found")
var ErrBadResponse = errors.New("bad response")

var tracer = otel.Tracer("entity-hydration-client")

const TraceAttributePath string = "path"

type Client struct {
	baseURL    string
	headers    map[string]string
	debug      bool
	httpClient http.Client
}

func Debug(enabled string) func(*Client) {
	return func(c *Client) {
		c.debug = (enabled == "true")
	}
}

// Header adds a header that is sent with every request
func Header(name, value string) func(*Client) {
	return func(c *Client) {
		c.headers[name] = value
	}
}

func New(baseURL string, options ...func(*Client)) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: map[string]string{},
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Get fetches path and returns the response body as a raw json value
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get", trace.WithAttributes(attribute.String(TraceAttributePath, path)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return nil, err
	}

	req.Header.Add("Accept", "application/json")
	for name, value := range c.headers {
		req.Header.Add(name, value)
	}

	if c.debug {
		reqbytes, _ := httputil.DumpRequest(req, false)
		log.Debug("sending request", "request", string(reqbytes))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to send request: %w", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		err = fmt.Errorf("%s: %w", path, ErrNotFound)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		contentType := resp.Header.Get("Content-Type")
		log.Error("request failed", "status", resp.StatusCode, "path", path)
		err = fmt.Errorf("%w: status code %d (content-type: %s, body: %s)", ErrBadResponse, resp.StatusCode, contentType, string(body))
		return nil, err
	}

	raw, err := hydration.Decode(resp.Body)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBadResponse, err)
		return nil, err
	}

	return raw, nil
}

// Retrieve fetches a single entity
func Retrieve[T any](ctx context.Context, c *Client, path string, construct hydration.Constructor[T]) (*T, error) {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	return construct(raw)
}

// Query fetches a json array and constructs one entity per element
func Query[T any](ctx context.Context, c *Client, path string, construct hydration.Constructor[T]) ([]*T, error) {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	if _, ok := raw.([]any); !ok {
		return nil, fmt.Errorf("%w: expected a json array from %s", ErrBadResponse, path)
	}

	return hydration.Collect(raw, construct)
}

// Refresh fetches path and merges the result into an existing entity. Fields that
// the response does not mention are left as they are.
func Refresh(ctx context.Context, c *Client, path string, e hydration.Entity) error {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	return e.Hydrate(raw)
}
