// Package observability wires OpenTelemetry tracing and metrics export.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ca-srg/researchpanel/internal/logging"
	"github.com/ca-srg/researchpanel/internal/types"
)

const (
	defaultServiceName      = "researchpanel"
	protocolHTTPProtobuf    = "http/protobuf"
	protocolGRPC            = "grpc"
	resourceServiceNameKey  = "service.name"
	defaultMetricExportTick = 60 * time.Second
)

// Config keeps OpenTelemetry settings resolved from the root configuration.
type Config struct {
	Enabled              bool
	ServiceName          string
	ExporterEndpoint     string
	ExporterProtocol     string
	ResourceAttributes   map[string]string
	TracesSampler        string
	TracesSamplerArg     float64
	MetricExportInterval time.Duration
}

// LoadConfig resolves the observability settings from cfg.
func LoadConfig(cfg *types.Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil root configuration provided")
	}

	attrs, err := parseResourceAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to parse resource attributes: %w", err)
	}

	otelCfg := &Config{
		Enabled:            cfg.OTelEnabled,
		ServiceName:        strings.TrimSpace(cfg.OTelServiceName),
		ExporterEndpoint:   strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		ExporterProtocol:   cfg.OTelExporterOTLPProtocol,
		ResourceAttributes: attrs,
		TracesSampler:      strings.TrimSpace(cfg.OTelTracesSampler),
		TracesSamplerArg:   cfg.OTelTracesSamplerArg,
	}

	if err := otelCfg.Validate(); err != nil {
		return nil, err
	}
	return otelCfg, nil
}

// Validate fills defaults and checks exporter settings when export is enabled.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("observability: config is nil")
	}

	c.applyDefaults()
	if !c.Enabled {
		return nil
	}

	if c.ExporterEndpoint == "" {
		return fmt.Errorf("observability: OTLP exporter endpoint is required when OpenTelemetry is enabled")
	}

	switch c.ExporterProtocol {
	case protocolHTTPProtobuf:
		parsed, err := url.Parse(c.ExporterEndpoint)
		if err != nil {
			return fmt.Errorf("observability: invalid OTLP exporter endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("observability: OTLP exporter endpoint must include http or https scheme when using http/protobuf protocol")
		}
		if parsed.Host == "" {
			return fmt.Errorf("observability: OTLP exporter endpoint must include a host when using http/protobuf protocol")
		}
	case protocolGRPC:
		if _, _, err := parseGRPCEndpoint(c.ExporterEndpoint); err != nil {
			return fmt.Errorf("observability: invalid OTLP exporter endpoint for grpc protocol: %w", err)
		}
	default:
		return fmt.Errorf("observability: unsupported OTLP exporter protocol %q", c.ExporterProtocol)
	}

	if c.TracesSamplerArg < 0 {
		return fmt.Errorf("observability: traces sampler argument must be non-negative")
	}
	if strings.EqualFold(c.TracesSampler, "traceidratio") && (c.TracesSamplerArg <= 0 || c.TracesSamplerArg > 1) {
		return fmt.Errorf("observability: traces sampler argument must be between 0 and 1 when sampler is traceidratio")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	c.ExporterProtocol = strings.ToLower(strings.TrimSpace(c.ExporterProtocol))
	if c.ExporterProtocol == "" {
		c.ExporterProtocol = protocolHTTPProtobuf
	}
	if c.TracesSampler == "" {
		c.TracesSampler = "always_on"
	}
	if c.MetricExportInterval <= 0 {
		c.MetricExportInterval = defaultMetricExportTick
	}
	if c.ResourceAttributes == nil {
		c.ResourceAttributes = make(map[string]string)
	}
	// service.name is always present to meet OTel semantic conventions.
	if _, ok := c.ResourceAttributes[resourceServiceNameKey]; !ok {
		c.ResourceAttributes[resourceServiceNameKey] = c.ServiceName
	}
}

// parseResourceAttributes parses "k1=v1,k2=v2".
func parseResourceAttributes(input string) (map[string]string, error) {
	attributes := make(map[string]string)

	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid resource attribute %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("resource attribute key cannot be empty")
		}
		attributes[key] = strings.TrimSpace(value)
	}

	return attributes, nil
}

// Init sets up the global tracer and meter providers from the root configuration.
// The returned ShutdownFunc flushes both; it is safe to call when Init fails.
func Init(rootCfg *types.Config, logger *slog.Logger) (ShutdownFunc, error) {
	logger = logging.OrDiscard(logger)
	noop := func(context.Context) error { return nil }

	otelCfg, err := LoadConfig(rootCfg)
	if err != nil {
		return noop, err
	}

	ctx := context.Background()

	tracerProvider, err := InitTracer(ctx, otelCfg)
	if err != nil {
		return noop, err
	}

	meterProvider, err := InitMeter(ctx, otelCfg)
	if err != nil {
		_ = NewShutdownFunc(tracerProvider, nil, logger)(ctx)
		return noop, err
	}

	if otelCfg.Enabled {
		logger.Info("OpenTelemetry export enabled",
			"endpoint", otelCfg.ExporterEndpoint,
			"protocol", otelCfg.ExporterProtocol,
			"service", otelCfg.ServiceName)
	}

	return NewShutdownFunc(tracerProvider, meterProvider, logger), nil
}
