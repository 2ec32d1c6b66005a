package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/ca-srg/researchpanel/internal/types"
)

// Type alias for Config
type Config = types.Config

const (
	defaultMetricsDir  = ".researchpanel"
	defaultMetricsFile = "stats.db"
	maxSessions        = 100000
)

// LoadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error; existing environment variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if err := validateEndpoint(config.ResearchEndpointURL); err != nil {
		return err
	}
	config.ResearchEndpointURL = strings.TrimRight(strings.TrimSpace(config.ResearchEndpointURL), "/")

	if config.ResearchRequestTimeout < 0 {
		return fmt.Errorf("RESEARCH_REQUEST_TIMEOUT cannot be negative")
	}
	if config.ResearchRateLimit < 0 {
		return fmt.Errorf("RESEARCH_RATE_LIMIT cannot be negative")
	}
	if config.ResearchRateBurst < 1 {
		config.ResearchRateBurst = 1
	}

	if config.WebUIPort < 1 || config.WebUIPort > 65535 {
		return fmt.Errorf("WEBUI_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(config.WebUIHost) == "" {
		return fmt.Errorf("WEBUI_HOST cannot be empty")
	}

	if config.WebUISessionIdleTimeout <= 0 {
		config.WebUISessionIdleTimeout = 30 * time.Minute
	}
	if config.WebUIMaxSessions < 1 {
		config.WebUIMaxSessions = 1
	}
	if config.WebUIMaxSessions > maxSessions {
		config.WebUIMaxSessions = maxSessions
	}

	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	switch config.LogLevel {
	case "":
		config.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if config.MetricsEnabled && strings.TrimSpace(config.MetricsDBPath) == "" {
		path, err := defaultMetricsDBPath()
		if err != nil {
			return err
		}
		config.MetricsDBPath = path
	}

	return nil
}

// validateEndpoint checks the search endpoint base URL
func validateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("RESEARCH_ENDPOINT_URL is required")
	}

	parsedURL, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid RESEARCH_ENDPOINT_URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("RESEARCH_ENDPOINT_URL scheme must be http or https")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("RESEARCH_ENDPOINT_URL must include a valid host")
	}

	return nil
}

func defaultMetricsDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultMetricsDir, defaultMetricsFile), nil
}
