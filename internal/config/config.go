// Package config provides configuration management for SearchME.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when none is given. It may be
// absent, in which case defaults apply.
const DefaultPath = "searchme.yaml"

// Config represents the complete SearchME configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bot      BotConfig      `yaml:"bot"`
	Registry RegistryConfig `yaml:"registry"`
	Dialogs  DialogsConfig  `yaml:"dialogs"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// BotConfig contains settings for the Bot Framework endpoint.
type BotConfig struct {
	AppID       string          `yaml:"app_id"`
	RequireAuth bool            `yaml:"require_auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits invoke activities per user. Zero requests disables it.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// RegistryConfig points at the package registry search API.
type RegistryConfig struct {
	BaseURL    string   `yaml:"base_url"`
	ResultSize int      `yaml:"result_size"`
	Timeout    Duration `yaml:"timeout"`
}

// DialogsConfig holds the static resources used to build task module dialogs.
type DialogsConfig struct {
	PageBaseURL    string   `yaml:"page_base_url"`
	FallbackURL    string   `yaml:"fallback_url"`
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	StaticCardPath string   `yaml:"static_card_path"`
	Capabilities   []string `yaml:"capabilities"`
	Unrecognized   string   `yaml:"unrecognized"`
}

// Known values for DialogsConfig.Capabilities.
const (
	CapabilityURL        = "url"
	CapabilityCard       = "card"
	CapabilityMessage    = "message"
	CapabilityNoResponse = "no_response"
)

// Known values for DialogsConfig.Unrecognized.
const (
	UnrecognizedMessage = "message"
	UnrecognizedNone    = "none"
)

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics settings.
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Address:      "0.0.0.0:3978",
				ReadTimeout:  Duration(15 * time.Second),
				WriteTimeout: Duration(15 * time.Second),
			},
		},
		Bot: BotConfig{
			RequireAuth: true,
			RateLimit: RateLimitConfig{
				Requests: 60,
				Window:   Duration(time.Minute),
			},
		},
		Registry: RegistryConfig{
			BaseURL:    "https://registry.npmjs.com",
			ResultSize: 8,
		},
		Dialogs: DialogsConfig{
			PageBaseURL: "https://helloworld36cffe.z5.web.core.windows.net/index.html",
			FallbackURL: "https://thisisignored.example.com/",
			Width:       450,
			Height:      510,
			Capabilities: []string{
				CapabilityURL,
				CapabilityCard,
				CapabilityMessage,
				CapabilityNoResponse,
			},
			Unrecognized: UnrecognizedMessage,
		},
		Metrics: MetricsConfig{
			Prometheus: PrometheusConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: TracingConfig{
			ServiceName: "searchme",
			Endpoint:    "localhost:4318",
			SampleRate:  1.0,
		},
	}
}

// Load loads configuration from a file. A missing file at DefaultPath is
// not an error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHME_HTTP_ADDRESS"); v != "" {
		c.Server.HTTP.Address = v
	}
	if v := os.Getenv("SEARCHME_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SEARCHME_APP_ID"); v != "" {
		c.Bot.AppID = v
	}
	if v := os.Getenv("SEARCHME_REQUIRE_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Bot.RequireAuth = b
		}
	}
	if v := os.Getenv("SEARCHME_REGISTRY_URL"); v != "" {
		c.Registry.BaseURL = v
	}
	if v := os.Getenv("SEARCHME_PAGE_BASE_URL"); v != "" {
		c.Dialogs.PageBaseURL = v
	}
	if v := os.Getenv("SEARCHME_DIALOG_CAPABILITIES"); v != "" {
		c.Dialogs.Capabilities = strings.Split(v, ",")
	}
	if v := os.Getenv("SEARCHME_TRACING_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
		c.Tracing.Enabled = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTP.Address == "" {
		return fmt.Errorf("server.http.address is required")
	}
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Registry.BaseURL); err != nil {
		return fmt.Errorf("registry.base_url is invalid: %w", err)
	}
	if c.Registry.ResultSize <= 0 {
		return fmt.Errorf("registry.result_size must be positive")
	}
	if c.Dialogs.PageBaseURL == "" {
		return fmt.Errorf("dialogs.page_base_url is required")
	}
	if c.Dialogs.Width <= 0 || c.Dialogs.Height <= 0 {
		return fmt.Errorf("dialogs.width and dialogs.height must be positive")
	}
	enabled := make(map[string]bool, len(c.Dialogs.Capabilities))
	for _, capability := range c.Dialogs.Capabilities {
		name := strings.TrimSpace(capability)
		switch name {
		case CapabilityURL, CapabilityCard, CapabilityMessage, CapabilityNoResponse:
			enabled[name] = true
		default:
			return fmt.Errorf("dialogs.capabilities: unknown capability %q", capability)
		}
	}
	// Every result card offers the URL and card dialogs.
	for _, required := range []string{CapabilityURL, CapabilityCard} {
		if !enabled[required] {
			return fmt.Errorf("dialogs.capabilities must include %q", required)
		}
	}
	switch c.Dialogs.Unrecognized {
	case UnrecognizedMessage, UnrecognizedNone:
	default:
		return fmt.Errorf("dialogs.unrecognized must be %q or %q", UnrecognizedMessage, UnrecognizedNone)
	}
	if c.Bot.RateLimit.Requests > 0 && c.Bot.RateLimit.Window <= 0 {
		return fmt.Errorf("bot.rate_limit.window must be positive when requests is set")
	}
	return nil
}
