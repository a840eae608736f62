package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.BaseURL != "https://adala.justice.gov.ma" {
		t.Errorf("unexpected default base URL %q", cfg.BaseURL)
	}
	if !reflect.DeepEqual(cfg.Roots, []string{"12", "569"}) {
		t.Errorf("unexpected default roots %v", cfg.Roots)
	}
	if cfg.Output != "laws" {
		t.Errorf("expected default output laws, got %q", cfg.Output)
	}
	if cfg.Extension != ".pdf" {
		t.Errorf("expected default extension .pdf, got %q", cfg.Extension)
	}
	if cfg.ChunkSize != 8*1024 {
		t.Errorf("expected default chunk size 8KB, got %d", cfg.ChunkSize)
	}
	if cfg.DownloadDelay != 500*time.Millisecond {
		t.Errorf("expected default download delay 500ms, got %v", cfg.DownloadDelay)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay != 2*time.Second {
		t.Errorf("expected default retry delay 2s, got %v", cfg.Retry.Delay)
	}
	if cfg.Timeouts.Metadata != 30*time.Second || cfg.Timeouts.Download != 60*time.Second {
		t.Errorf("unexpected default timeouts %+v", cfg.Timeouts)
	}
	if cfg.Headers.UserAgent == "" {
		t.Error("expected a default user agent")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return configPath
}

func TestLoadFromYAML(t *testing.T) {
	configPath := writeConfig(t, `
base_url: http://localhost:8080
roots: [7, "abc"]
output: s3://laws?region=eu-west-1
chunk_size: 64KB
download_delay: 1s
strict: true
retry:
  attempts: 5
  delay: 250ms
timeouts:
  download: 5m
headers:
  user_agent: Mozilla/5.0 test
`)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("expected base URL from file, got %q", cfg.BaseURL)
	}
	if !reflect.DeepEqual(cfg.Roots, []string{"7", "abc"}) {
		t.Errorf("expected roots [7 abc], got %v", cfg.Roots)
	}
	if cfg.Output != "s3://laws?region=eu-west-1" {
		t.Errorf("unexpected output %q", cfg.Output)
	}
	if cfg.ChunkSize != 64*1024 {
		t.Errorf("expected chunk size 64KB, got %d", cfg.ChunkSize)
	}
	if cfg.DownloadDelay != time.Second {
		t.Errorf("expected download delay 1s, got %v", cfg.DownloadDelay)
	}
	if !cfg.Strict {
		t.Error("expected strict true")
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("expected retry attempts 5, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay != 250*time.Millisecond {
		t.Errorf("expected retry delay 250ms, got %v", cfg.Retry.Delay)
	}
	if cfg.Timeouts.Download != 5*time.Minute {
		t.Errorf("expected download timeout 5m, got %v", cfg.Timeouts.Download)
	}
	if cfg.Timeouts.Metadata != 30*time.Second {
		t.Errorf("expected metadata timeout kept at default, got %v", cfg.Timeouts.Metadata)
	}
	if cfg.Headers.UserAgent != "Mozilla/5.0 test" {
		t.Errorf("unexpected user agent %q", cfg.Headers.UserAgent)
	}
	if cfg.Headers.Accept != Default().Headers.Accept {
		t.Errorf("expected default accept header, got %q", cfg.Headers.Accept)
	}
	if cfg.Extension != ".pdf" {
		t.Errorf("expected default extension, got %q", cfg.Extension)
	}
}

func TestLoadYAMLBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"chunk size", "chunk_size: lots\n"},
		{"download delay", "download_delay: soon\n"},
		{"retry delay", "retry:\n  delay: 2 seconds\n"},
		{"metadata timeout", "timeouts:\n  metadata: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TREEMIRROR_BASE_URL", "http://127.0.0.1:9000/")
	t.Setenv("TREEMIRROR_ROOTS", "1, 2,,3")
	t.Setenv("TREEMIRROR_OUTPUT", "mem://")
	t.Setenv("TREEMIRROR_CHUNK_SIZE", "16KB")
	t.Setenv("TREEMIRROR_STRICT", "1")
	t.Setenv("TREEMIRROR_RETRY_ATTEMPTS", "4")
	t.Setenv("TREEMIRROR_RETRY_DELAY", "100ms")
	t.Setenv("TREEMIRROR_DOWNLOAD_DELAY", "0s")
	t.Setenv("TREEMIRROR_DOWNLOAD_TIMEOUT", "2m")

	cfg := Default()
	if err := cfg.LoadEnv(""); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}

	if cfg.BaseURL != "http://127.0.0.1:9000/" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if !reflect.DeepEqual(cfg.Roots, []string{"1", "2", "3"}) {
		t.Errorf("expected roots [1 2 3], got %v", cfg.Roots)
	}
	if cfg.Output != "mem://" {
		t.Errorf("unexpected output %q", cfg.Output)
	}
	if cfg.ChunkSize != 16*1024 {
		t.Errorf("expected chunk size 16KB, got %d", cfg.ChunkSize)
	}
	if !cfg.Strict {
		t.Error("expected strict true")
	}
	if cfg.Retry.Attempts != 4 {
		t.Errorf("expected retry attempts 4, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay != 100*time.Millisecond {
		t.Errorf("expected retry delay 100ms, got %v", cfg.Retry.Delay)
	}
	if cfg.DownloadDelay != 0 {
		t.Errorf("expected download delay 0, got %v", cfg.DownloadDelay)
	}
	if cfg.Timeouts.Download != 2*time.Minute {
		t.Errorf("expected download timeout 2m, got %v", cfg.Timeouts.Download)
	}
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "TREEMIRROR_OUTPUT=from-file\nTREEMIRROR_LOG_LEVEL=debug\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Already set variables win over the file.
	t.Setenv("TREEMIRROR_OUTPUT", "from-env")
	// Register the variable the file sets so it is cleaned up after the test.
	t.Setenv("TREEMIRROR_LOG_LEVEL", "")
	os.Unsetenv("TREEMIRROR_LOG_LEVEL")

	cfg := Default()
	if err := cfg.LoadEnv(envFile); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}

	if cfg.Output != "from-env" {
		t.Errorf("expected environment to win, got %q", cfg.Output)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level from file, got %q", cfg.LogLevel)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected a missing env file to be ignored, got %v", err)
	}
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("TREEMIRROR_RETRY_ATTEMPTS", "three")

	cfg := Default()
	if err := cfg.LoadEnv(""); err == nil {
		t.Error("expected error for invalid attempts")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"bucket output", func(c *Config) { c.Output = "gs://bucket/laws" }, false},
		{"no extension", func(c *Config) { c.Extension = "" }, false},
		{"missing base URL", func(c *Config) { c.BaseURL = "" }, true},
		{"relative base URL", func(c *Config) { c.BaseURL = "adala.justice.gov.ma" }, true},
		{"ftp base URL", func(c *Config) { c.BaseURL = "ftp://example.com" }, true},
		{"no roots", func(c *Config) { c.Roots = nil }, true},
		{"blank root", func(c *Config) { c.Roots = []string{"12", " "} }, true},
		{"missing output", func(c *Config) { c.Output = "" }, true},
		{"extension without dot", func(c *Config) { c.Extension = "pdf" }, true},
		{"invalid chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative download delay", func(c *Config) { c.DownloadDelay = -time.Second }, true},
		{"invalid attempts", func(c *Config) { c.Retry.Attempts = 0 }, true},
		{"negative retry delay", func(c *Config) { c.Retry.Delay = -time.Second }, true},
		{"zero timeout", func(c *Config) { c.Timeouts.Metadata = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Output = "/srv/laws"

	override := Config{
		Roots:   []string{"42"},
		Retry:   RetryConfig{Attempts: 5},
		Headers: HeadersConfig{UserAgent: "Mozilla/5.0 custom"},
		Strict:  true,
	}

	merged := base.Merge(override)

	// Should keep base values for non-overridden fields
	if merged.Output != "/srv/laws" {
		t.Errorf("expected Output preserved, got %s", merged.Output)
	}
	if merged.Retry.Delay != 2*time.Second {
		t.Errorf("expected Retry.Delay preserved, got %v", merged.Retry.Delay)
	}
	if merged.Headers.Accept != base.Headers.Accept {
		t.Errorf("expected Accept preserved, got %q", merged.Headers.Accept)
	}

	// Should use override values
	if !reflect.DeepEqual(merged.Roots, []string{"42"}) {
		t.Errorf("expected Roots overridden, got %v", merged.Roots)
	}
	if merged.Retry.Attempts != 5 {
		t.Errorf("expected Retry.Attempts overridden to 5, got %d", merged.Retry.Attempts)
	}
	if merged.Headers.UserAgent != "Mozilla/5.0 custom" {
		t.Errorf("expected UserAgent overridden, got %q", merged.Headers.UserAgent)
	}
	if !merged.Strict {
		t.Error("expected Strict overridden")
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
