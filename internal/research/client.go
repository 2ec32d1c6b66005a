package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ca-srg/researchpanel/internal/logging"
)

const (
	tracerName = "researchpanel/research"

	// RequestIDHeader carries a per-call identifier to the search endpoint
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 16 << 20
)

// ClientConfig configures a search endpoint client
type ClientConfig struct {
	// BaseURL is the endpoint origin; Path is appended to it
	BaseURL string
	// Timeout bounds a whole call. Zero means no client-side timeout.
	Timeout time.Duration
	// RateLimit caps outbound calls per second. Zero disables limiting.
	RateLimit float64
	RateBurst int
	// HTTPClient overrides the instrumented default client
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client posts queries to the search endpoint
type Client struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewClient creates a search endpoint client
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		endpoint:    base + Path,
		httpClient:  httpClient,
		rateLimiter: limiter,
		tracer:      otel.Tracer(tracerName),
		logger:      logging.OrDiscard(cfg.Logger),
	}, nil
}

// Endpoint returns the full URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Search posts req to the endpoint and returns the decoded result set.
// Failures are returned as *Error.
func (c *Client) Search(ctx context.Context, req Request) ([]Result, error) {
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "research.search", trace.WithAttributes(
		attribute.Int("research.k", req.K),
		attribute.Int("research.query_length", len(req.Query)),
		attribute.String("research.request_id", requestID),
	))
	defer span.End()

	results, err := c.search(ctx, req, requestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("research.result_count", len(results)))
	return results, nil
}

func (c *Client) search(ctx context.Context, req Request, requestID string) ([]Result, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, transportError("rate limiter wait", err)
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, transportError("encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transportError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError("send request", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("search endpoint responded",
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body content is irrelevant.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError("read response body", err)
	}

	return DecodeResults(body)
}

// DecodeResults parses a success body. The body must be JSON and its
// "results" member must be an array.
func DecodeResults(body []byte) ([]Result, error) {
	if !json.Valid(body) {
		return nil, transportError("decode response body", fmt.Errorf("body is not valid JSON"))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		return nil, malformedError("body is not an object")
	}

	raw, ok := envelope["results"]
	if !ok {
		return nil, malformedError("results missing")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformedError("results is not an array")
	}

	var results []Result
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, malformedError(err.Error())
	}
	if results == nil {
		results = []Result{}
	}

	return results, nil
}
