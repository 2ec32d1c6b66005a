package types

import "time"

// Config holds the application configuration resolved from the environment
type Config struct {
	// Search endpoint configuration
	ResearchEndpointURL    string        `json:"research_endpoint_url" env:"RESEARCH_ENDPOINT_URL,default=http://localhost:8000"`
	ResearchRequestTimeout time.Duration `json:"research_request_timeout" env:"RESEARCH_REQUEST_TIMEOUT,default=0s"`
	ResearchRateLimit      float64       `json:"research_rate_limit" env:"RESEARCH_RATE_LIMIT,default=0"`
	ResearchRateBurst      int           `json:"research_rate_burst" env:"RESEARCH_RATE_BURST,default=1"`

	// Web UI configuration
	WebUIHost               string        `json:"webui_host" env:"WEBUI_HOST,default=localhost"`
	WebUIPort               int           `json:"webui_port" env:"WEBUI_PORT,default=8081"`
	WebUISessionIdleTimeout time.Duration `json:"webui_session_idle_timeout" env:"WEBUI_SESSION_IDLE_TIMEOUT,default=30m"`
	WebUIMaxSessions        int           `json:"webui_max_sessions" env:"WEBUI_MAX_SESSIONS,default=1000"`
	WebUIDiscardSuperseded  bool          `json:"webui_discard_superseded" env:"WEBUI_DISCARD_SUPERSEDED,default=false"`

	// Logging
	LogLevel string `json:"log_level" env:"LOG_LEVEL,default=info"`

	// Submission metrics
	MetricsEnabled bool   `json:"metrics_enabled" env:"METRICS_ENABLED,default=true"`
	MetricsDBPath  string `json:"metrics_db_path" env:"METRICS_DB_PATH"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=researchpanel"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}
