package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	mirrorhttp "github.com/ligustah/treemirror/internal/http"
	"github.com/ligustah/treemirror/internal/progress"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "TREEMIRROR_"

// Config defines configuration for the treemirror CLI.
type Config struct {
	BaseURL       string        `yaml:"base_url"`
	Roots         []string      `yaml:"roots"`
	Output        string        `yaml:"output"`
	Extension     string        `yaml:"extension"`
	ChunkSize     int64         `yaml:"chunk_size"`
	DownloadDelay time.Duration `yaml:"download_delay"`
	LogLevel      string        `yaml:"log_level"`
	Strict        bool          `yaml:"strict"`
	Retry         RetryConfig   `yaml:"retry"`
	Timeouts      TimeoutConfig `yaml:"timeouts"`
	Headers       HeadersConfig `yaml:"headers"`
}

// RetryConfig defines retry behavior. Attempts counts the first request.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// TimeoutConfig bounds single requests.
type TimeoutConfig struct {
	Metadata time.Duration `yaml:"metadata"`
	Download time.Duration `yaml:"download"`
}

// HeadersConfig holds the browser identification sent with every request.
type HeadersConfig struct {
	UserAgent      string `yaml:"user_agent"`
	Accept         string `yaml:"accept"`
	AcceptLanguage string `yaml:"accept_language"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:       "https://adala.justice.gov.ma",
		Roots:         []string{"12", "569"},
		Output:        "laws",
		Extension:     ".pdf",
		ChunkSize:     8 * 1024,
		DownloadDelay: 500 * time.Millisecond,
		LogLevel:      "info",
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    2 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Metadata: 30 * time.Second,
			Download: 60 * time.Second,
		},
		Headers: HeadersConfig{
			UserAgent:      mirrorhttp.DefaultUserAgent,
			Accept:         mirrorhttp.DefaultAccept,
			AcceptLanguage: mirrorhttp.DefaultAcceptLanguage,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	BaseURL       string            `yaml:"base_url"`
	Roots         []string          `yaml:"roots"`
	Output        string            `yaml:"output"`
	Extension     string            `yaml:"extension"`
	ChunkSize     string            `yaml:"chunk_size"`
	DownloadDelay string            `yaml:"download_delay"`
	LogLevel      string            `yaml:"log_level"`
	Strict        bool              `yaml:"strict"`
	Retry         yamlRetryConfig   `yaml:"retry"`
	Timeouts      yamlTimeoutConfig `yaml:"timeouts"`
	Headers       HeadersConfig     `yaml:"headers"`
}

type yamlRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

type yamlTimeoutConfig struct {
	Metadata string `yaml:"metadata"`
	Download string `yaml:"download"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if len(yc.Roots) > 0 {
		cfg.Roots = yc.Roots
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.Extension != "" {
		cfg.Extension = yc.Extension
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if err := parseDuration(yc.DownloadDelay, "download_delay", &cfg.DownloadDelay); err != nil {
		return Config{}, err
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	cfg.Strict = yc.Strict
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if err := parseDuration(yc.Retry.Delay, "retry.delay", &cfg.Retry.Delay); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.Timeouts.Metadata, "timeouts.metadata", &cfg.Timeouts.Metadata); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.Timeouts.Download, "timeouts.download", &cfg.Timeouts.Download); err != nil {
		return Config{}, err
	}
	cfg.Headers = cfg.Headers.merge(yc.Headers)

	return cfg, nil
}

func parseDuration(s, name string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	*dst = d
	return nil
}

// LoadEnv loads configuration from environment variables with the
// TREEMIRROR_ prefix. Variables from envFile are added first when the file
// exists; variables already set in the environment win over it. An empty
// envFile skips that step.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("ROOTS"); v != "" {
		c.Roots = splitList(v)
	}
	if v := getenv("OUTPUT"); v != "" {
		c.Output = v
	}
	if v := getenv("EXTENSION"); v != "" {
		c.Extension = v
	}
	if v := getenv("CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse %sCHUNK_SIZE: %w", EnvPrefix, err)
		}
		c.ChunkSize = size
	}
	if err := envDuration("DOWNLOAD_DELAY", &c.DownloadDelay); err != nil {
		return err
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("STRICT"); v != "" {
		c.Strict = v == "true" || v == "1"
	}
	if v := getenv("RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Retry.Attempts = n
	}
	if err := envDuration("RETRY_DELAY", &c.Retry.Delay); err != nil {
		return err
	}
	if err := envDuration("METADATA_TIMEOUT", &c.Timeouts.Metadata); err != nil {
		return err
	}
	if err := envDuration("DOWNLOAD_TIMEOUT", &c.Timeouts.Download); err != nil {
		return err
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.Headers.UserAgent = v
	}

	return nil
}

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func envDuration(name string, dst *time.Duration) error {
	v := getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s%s: %w", EnvPrefix, name, err)
	}
	*dst = d
	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base URL %q must be an absolute http(s) URL", c.BaseURL)
	}
	if len(c.Roots) == 0 {
		return errors.New("config: at least one root is required")
	}
	for _, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return errors.New("config: roots must not be empty")
		}
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("config: extension %q must start with a dot", c.Extension)
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.DownloadDelay < 0 {
		return errors.New("config: download_delay must not be negative")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry attempts must be positive")
	}
	if c.Retry.Delay < 0 {
		return errors.New("config: retry delay must not be negative")
	}
	if c.Timeouts.Metadata <= 0 || c.Timeouts.Download <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if len(override.Roots) > 0 {
		c.Roots = override.Roots
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Extension != "" {
		c.Extension = override.Extension
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.DownloadDelay != 0 {
		c.DownloadDelay = override.DownloadDelay
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.Strict {
		c.Strict = override.Strict
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Delay != 0 {
		c.Retry.Delay = override.Retry.Delay
	}
	if override.Timeouts.Metadata != 0 {
		c.Timeouts.Metadata = override.Timeouts.Metadata
	}
	if override.Timeouts.Download != 0 {
		c.Timeouts.Download = override.Timeouts.Download
	}
	c.Headers = c.Headers.merge(override.Headers)
	return c
}

func (h HeadersConfig) merge(override HeadersConfig) HeadersConfig {
	if override.UserAgent != "" {
		h.UserAgent = override.UserAgent
	}
	if override.Accept != "" {
		h.Accept = override.Accept
	}
	if override.AcceptLanguage != "" {
		h.AcceptLanguage = override.AcceptLanguage
	}
	return h
}
