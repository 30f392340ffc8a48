package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "searchme.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTP.Address != "0.0.0.0:3978" {
		t.Errorf("expected default HTTP address '0.0.0.0:3978', got %q", cfg.Server.HTTP.Address)
	}
	if cfg.Registry.ResultSize != 8 {
		t.Errorf("expected default result size 8, got %d", cfg.Registry.ResultSize)
	}
	if cfg.Dialogs.Width != 450 || cfg.Dialogs.Height != 510 {
		t.Errorf("expected default dialog size 450x510, got %dx%d", cfg.Dialogs.Width, cfg.Dialogs.Height)
	}
	if len(cfg.Dialogs.Capabilities) != 4 {
		t.Errorf("expected all 4 dialog capabilities by default, got %v", cfg.Dialogs.Capabilities)
	}
	if cfg.Dialogs.Unrecognized != UnrecognizedMessage {
		t.Errorf("expected unrecognized fallback %q, got %q", UnrecognizedMessage, cfg.Dialogs.Unrecognized)
	}
	if !cfg.Bot.RequireAuth {
		t.Error("expected auth to be required by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing http address",
			modify:  func(c *Config) { c.Server.HTTP.Address = "" },
			wantErr: true,
		},
		{
			name:    "missing registry url",
			modify:  func(c *Config) { c.Registry.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "relative registry url",
			modify:  func(c *Config) { c.Registry.BaseURL = "registry.local" },
			wantErr: true,
		},
		{
			name:    "zero result size",
			modify:  func(c *Config) { c.Registry.ResultSize = 0 },
			wantErr: true,
		},
		{
			name:    "missing page base url",
			modify:  func(c *Config) { c.Dialogs.PageBaseURL = "" },
			wantErr: true,
		},
		{
			name:    "negative dialog width",
			modify:  func(c *Config) { c.Dialogs.Width = -1 },
			wantErr: true,
		},
		{
			name:    "unknown capability",
			modify:  func(c *Config) { c.Dialogs.Capabilities = []string{"url", "video"} },
			wantErr: true,
		},
		{
			name:    "empty capabilities",
			modify:  func(c *Config) { c.Dialogs.Capabilities = nil },
			wantErr: true,
		},
		{
			name:    "card dialog disabled",
			modify:  func(c *Config) { c.Dialogs.Capabilities = []string{"url", "message"} },
			wantErr: true,
		},
		{
			name:    "url dialog disabled",
			modify:  func(c *Config) { c.Dialogs.Capabilities = []string{"card", "no_response"} },
			wantErr: true,
		},
		{
			name:    "result card dialogs only",
			modify:  func(c *Config) { c.Dialogs.Capabilities = []string{" url", "card"} },
			wantErr: false,
		},
		{
			name:    "unknown unrecognized mode",
			modify:  func(c *Config) { c.Dialogs.Unrecognized = "panic" },
			wantErr: true,
		},
		{
			name:    "silent unrecognized mode",
			modify:  func(c *Config) { c.Dialogs.Unrecognized = UnrecognizedNone },
			wantErr: false,
		},
		{
			name:    "rate limit without window",
			modify:  func(c *Config) { c.Bot.RateLimit.Window = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Load(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    address: 127.0.0.1:9000
    read_timeout: 60s

bot:
  app_id: 00000000-1111-2222-3333-444444444444
  require_auth: false

registry:
  base_url: http://registry.internal
  result_size: 5
  timeout: 3

dialogs:
  page_base_url: https://pages.example.com/index.html
  capabilities: [url, card, message]
  unrecognized: none

logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTP.Address != "127.0.0.1:9000" {
		t.Errorf("expected HTTP address '127.0.0.1:9000', got %q", cfg.Server.HTTP.Address)
	}
	if cfg.Server.HTTP.ReadTimeout.Duration() != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.HTTP.ReadTimeout)
	}
	if cfg.Bot.RequireAuth {
		t.Error("expected require_auth false from file")
	}
	if cfg.Registry.BaseURL != "http://registry.internal" {
		t.Errorf("unexpected registry url %q", cfg.Registry.BaseURL)
	}
	if cfg.Registry.ResultSize != 5 {
		t.Errorf("expected result size 5, got %d", cfg.Registry.ResultSize)
	}
	if cfg.Registry.Timeout.Duration() != 3*time.Second {
		t.Errorf("expected integer timeout read as seconds, got %v", cfg.Registry.Timeout)
	}
	if len(cfg.Dialogs.Capabilities) != 3 {
		t.Errorf("expected 3 capabilities, got %v", cfg.Dialogs.Capabilities)
	}
	if cfg.Dialogs.Unrecognized != UnrecognizedNone {
		t.Errorf("expected unrecognized 'none', got %q", cfg.Dialogs.Unrecognized)
	}
	// Values absent from the file keep their defaults.
	if cfg.Dialogs.Width != 450 {
		t.Errorf("expected default width 450, got %d", cfg.Dialogs.Width)
	}
}

func TestConfig_Load_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/searchme.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestConfig_Load_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("expected defaults when %s is absent, got %v", DefaultPath, err)
	}
	if cfg.Registry.ResultSize != 8 {
		t.Errorf("expected default result size, got %d", cfg.Registry.ResultSize)
	}
}

func TestConfig_Load_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: yaml: content:")

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestConfig_Load_ExpandsEnv(t *testing.T) {
	t.Setenv("PAGES_HOST", "pages.example.org")

	path := writeConfig(t, `
dialogs:
  page_base_url: https://${PAGES_HOST}/index.html
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dialogs.PageBaseURL != "https://pages.example.org/index.html" {
		t.Errorf("expected expanded page url, got %q", cfg.Dialogs.PageBaseURL)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCHME_HTTP_ADDRESS", "0.0.0.0:7000")
	t.Setenv("SEARCHME_LOG_LEVEL", "warn")
	t.Setenv("SEARCHME_REQUIRE_AUTH", "false")
	t.Setenv("SEARCHME_REGISTRY_URL", "http://mirror.local")
	t.Setenv("SEARCHME_DIALOG_CAPABILITIES", "card,url")
	t.Setenv("SEARCHME_TRACING_ENDPOINT", "collector:4318")

	path := writeConfig(t, `
server:
  http:
    address: 0.0.0.0:8080
logging:
  level: info
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTP.Address != "0.0.0.0:7000" {
		t.Errorf("expected address from env, got %q", cfg.Server.HTTP.Address)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn' from env, got %q", cfg.Logging.Level)
	}
	if cfg.Bot.RequireAuth {
		t.Error("expected require_auth false from env")
	}
	if cfg.Registry.BaseURL != "http://mirror.local" {
		t.Errorf("expected registry url from env, got %q", cfg.Registry.BaseURL)
	}
	if len(cfg.Dialogs.Capabilities) != 2 || cfg.Dialogs.Capabilities[0] != CapabilityCard {
		t.Errorf("expected capabilities from env, got %v", cfg.Dialogs.Capabilities)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Endpoint != "collector:4318" {
		t.Errorf("expected tracing enabled with env endpoint, got %+v", cfg.Tracing)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"1s", time.Second},
		{"5m", 5 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"100ms", 100 * time.Millisecond},
		{"30", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out struct {
				Timeout Duration `yaml:"timeout"`
			}
			if err := yaml.Unmarshal([]byte("timeout: "+tt.input), &out); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if out.Timeout.Duration() != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, out.Timeout.Duration())
			}
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"2m"`), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.Duration() != 2*time.Minute {
		t.Errorf("expected 2m, got %v", d)
	}

	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Error("expected error for boolean duration")
	}

	b, err := json.Marshal(Duration(1500 * time.Millisecond))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"1.5s"` {
		t.Errorf("expected \"1.5s\", got %s", b)
	}
}
