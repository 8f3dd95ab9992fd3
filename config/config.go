// Package config loads gotlive settings from a YAML or TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/gotlive"
)

// Config is the top-level gotlive configuration.
type Config struct {
	DefaultLanguage string            `yaml:"default_language" toml:"default_language" env:"GOTLIVE_DEFAULT_LANGUAGE"`
	Context         string            `yaml:"context" toml:"context" env:"GOTLIVE_CONTEXT"`
	Style           string            `yaml:"style" toml:"style" env:"GOTLIVE_STYLE"`
	ExcludedTerms   []string          `yaml:"excluded_terms" toml:"excluded_terms" env:"GOTLIVE_EXCLUDED_TERMS" envSeparator:","`
	Glossary        map[string]string `yaml:"glossary" toml:"glossary"`

	BatchSize         int           `yaml:"batch_size" toml:"batch_size" env:"GOTLIVE_BATCH_SIZE"`
	BatchDelay        time.Duration `yaml:"batch_delay" toml:"batch_delay" env:"GOTLIVE_BATCH_DELAY"`
	Debounce          time.Duration `yaml:"debounce" toml:"debounce" env:"GOTLIVE_DEBOUNCE"`
	RequestsPerMinute int           `yaml:"requests_per_minute" toml:"requests_per_minute" env:"GOTLIVE_RPM"`
	Retry             RetryConfig   `yaml:"retry" toml:"retry" envPrefix:"GOTLIVE_RETRY_"`

	OpenAI OpenAIConfig `yaml:"openai" toml:"openai"`
	Redis  RedisConfig  `yaml:"redis" toml:"redis" envPrefix:"GOTLIVE_REDIS_"`

	LogLevel     string `yaml:"log_level" toml:"log_level" env:"GOTLIVE_LOG_LEVEL"`
	OTelEndpoint string `yaml:"otel_endpoint" toml:"otel_endpoint" env:"GOTLIVE_OTEL_ENDPOINT"`
}

// RetryConfig controls how rate-limited batches are retried.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" toml:"max_retries" env:"MAX"`
	Delay      time.Duration `yaml:"delay" toml:"delay" env:"DELAY"`
	Multiplier float64       `yaml:"multiplier" toml:"multiplier" env:"MULTIPLIER"`
	MaxDelay   time.Duration `yaml:"max_delay" toml:"max_delay" env:"MAX_DELAY"`
	// Transient also retries network failures and 5xx responses.
	Transient  bool          `yaml:"transient" toml:"transient" env:"TRANSIENT"`
}

// OpenAIConfig selects the OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key" toml:"api_key" env:"OPENAI_API_KEY"`
	Model       string  `yaml:"model" toml:"model" env:"GOTLIVE_MODEL"`
	BaseURL     string  `yaml:"base_url" toml:"base_url" env:"OPENAI_BASE_URL"`
	Temperature float32 `yaml:"temperature" toml:"temperature" env:"GOTLIVE_TEMPERATURE"`
}

// RedisConfig enables the shared translation cache when URL is set.
type RedisConfig struct {
	URL       string `yaml:"url" toml:"url" env:"URL"`
	TTL       int    `yaml:"ttl" toml:"ttl" env:"TTL"` // seconds, 0 = no expiry
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix" env:"KEY_PREFIX"`
	Session   string `yaml:"session" toml:"session" env:"SESSION"`
}

// Default returns the built-in configuration.
func Default() *Config {
	policy := gotlive.DefaultRetryPolicy()
	return &Config{
		DefaultLanguage: "en",
		Style:           string(gotlive.StyleNeutral),
		BatchSize:       gotlive.DefaultBatchSize,
		BatchDelay:      gotlive.DefaultBatchDelay,
		Debounce:        gotlive.DefaultDebounce,
		Retry: RetryConfig{
			MaxRetries: policy.MaxRetries,
			Delay:      policy.Delay,
			Multiplier: policy.Multiplier,
			MaxDelay:   policy.MaxDelay,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
		},
		Redis: RedisConfig{
			TTL:       3600,
			KeyPrefix: "gotlive:",
		},
		LogLevel: "info",
	}
}

// Load builds a Config from the defaults, the file at path (optional, YAML
// or TOML by extension) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		_, err = toml.Decode(string(data), c)
	default:
		return fmt.Errorf("config %s: unsupported format (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DefaultLanguage) == "" {
		errs = append(errs, errors.New("default_language is required"))
	}
	switch gotlive.TranslationStyle(c.Style) {
	case "", gotlive.StyleFormal, gotlive.StyleNeutral, gotlive.StyleCasual, gotlive.StyleMarketing, gotlive.StyleTechnical:
	default:
		errs = append(errs, fmt.Errorf("unknown style %q", c.Style))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.BatchDelay < 0 {
		errs = append(errs, fmt.Errorf("batch_delay must not be negative, got %s", c.BatchDelay))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests_per_minute must not be negative, got %d", c.RequestsPerMinute))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries))
	}
	if c.Retry.Delay < 0 || c.Retry.MaxDelay < 0 || c.Retry.Multiplier < 0 {
		errs = append(errs, errors.New("retry delays and multiplier must not be negative"))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("openai.temperature must be within [0, 2], got %g", c.OpenAI.Temperature))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl must not be negative, got %d", c.Redis.TTL))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() gotlive.RetryPolicy {
	policy := gotlive.RetryPolicy{
		MaxRetries: c.Retry.MaxRetries,
		Delay:      c.Retry.Delay,
		Multiplier: c.Retry.Multiplier,
		MaxDelay:   c.Retry.MaxDelay,
	}
	if c.Retry.Transient {
		policy.ShouldRetry = gotlive.IsRetryable
	}
	return policy
}

// EngineOptions maps the configuration onto engine options.
func (c *Config) EngineOptions() []gotlive.EngineOption {
	opts := []gotlive.EngineOption{
		gotlive.WithDefaultLanguage(c.DefaultLanguage),
		gotlive.WithBatchSize(c.BatchSize),
		gotlive.WithRetryPolicy(c.RetryPolicy()),
		gotlive.WithDebounce(c.Debounce),
	}
	if c.BatchDelay == 0 {
		opts = append(opts, gotlive.WithBatchDelay(-1))
	} else {
		opts = append(opts, gotlive.WithBatchDelay(c.BatchDelay))
	}
	if c.Context != "" {
		opts = append(opts, gotlive.WithContext(c.Context))
	}
	if len(c.Glossary) > 0 {
		opts = append(opts, gotlive.WithGlossary(c.Glossary))
	}
	if len(c.ExcludedTerms) > 0 {
		opts = append(opts, gotlive.WithExcludedTerms(c.ExcludedTerms))
	}
	if c.Style != "" {
		opts = append(opts, gotlive.WithStyle(gotlive.TranslationStyle(c.Style)))
	}
	return opts
}
