package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	otlpmetricgrpc "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otlpmetrichttp "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	tracesPath  = "/v1/traces"
	metricsPath = "/v1/metrics"
)

// NewOTLPTraceExporter builds the span exporter for cfg.ExporterProtocol.
func NewOTLPTraceExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: trace exporter requires a config")
	}

	switch cfg.ExporterProtocol {
	case protocolHTTPProtobuf:
		endpoint, err := normalizeOTLPHTTPPath(cfg.ExporterEndpoint, tracesPath)
		if err != nil {
			return nil, fmt.Errorf("observability: invalid OTLP HTTP endpoint: %w", err)
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
		if strings.HasPrefix(endpoint, "http://") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case protocolGRPC:
		hostport, insecure, err := parseGRPCEndpoint(cfg.ExporterEndpoint)
		if err != nil {
			return nil, fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", err)
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(hostport)}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("observability: unsupported trace exporter protocol %q", cfg.ExporterProtocol)
	}
}

// NewOTLPMetricExporter builds the metric exporter for cfg.ExporterProtocol.
func NewOTLPMetricExporter(ctx context.Context, cfg *Config) (sdkmetric.Exporter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: metric exporter requires a config")
	}

	switch cfg.ExporterProtocol {
	case protocolHTTPProtobuf:
		endpoint, err := normalizeOTLPHTTPPath(cfg.ExporterEndpoint, metricsPath)
		if err != nil {
			return nil, fmt.Errorf("observability: invalid OTLP HTTP endpoint: %w", err)
		}
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(endpoint)}
		if strings.HasPrefix(endpoint, "http://") {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	case protocolGRPC:
		hostport, insecure, err := parseGRPCEndpoint(cfg.ExporterEndpoint)
		if err != nil {
			return nil, fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", err)
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(hostport)}
		if insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("observability: unsupported metric exporter protocol %q", cfg.ExporterProtocol)
	}
}

// normalizeOTLPHTTPPath appends the signal path (e.g. /v1/metrics) to endpoint
// unless it already ends with it. Query strings are kept.
func normalizeOTLPHTTPPath(endpoint, suffix string) (string, error) {
	if strings.TrimSpace(endpoint) == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	want := "/" + strings.Trim(strings.TrimSpace(suffix), "/")
	current := strings.TrimSuffix(parsed.Path, "/")
	if !strings.HasSuffix(current, want) {
		current += want
	}
	parsed.Path = current

	return parsed.String(), nil
}

// parseGRPCEndpoint returns host:port and whether the connection is plaintext.
// Endpoints without a scheme are treated as plaintext host:port.
func parseGRPCEndpoint(raw string) (string, bool, error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return "", false, fmt.Errorf("endpoint cannot be empty")
	}

	if !strings.Contains(endpoint, "://") {
		if !strings.Contains(endpoint, ":") {
			return "", false, fmt.Errorf("endpoint should include host:port")
		}
		return endpoint, true, nil
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("endpoint must include host")
	}

	switch parsed.Scheme {
	case "http", "grpc":
		return parsed.Host, true, nil
	case "https", "grpcs":
		return parsed.Host, false, nil
	default:
		return "", false, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}
