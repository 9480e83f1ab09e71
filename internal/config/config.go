// Package config defines chalk's resolved configuration. The core only ever
// consumes these values; loading is a plain YAML file read with no env or
// template resolution, and the loaded struct is passed into components by
// the process entry point.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML decoding.
// Accepts Go duration strings ("1h", "90s") or plain integer seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value on line %d", value.Line)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RedisConfig holds connection settings for the blackboard store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// S3Config holds credentials for the s3 storage backend.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// SFTPConfig holds credentials for the sftp storage backend.
type SFTPConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// StorageConfig holds per-scheme backend settings. The file and http(s)
// schemes need no configuration; a nil section leaves its scheme unregistered.
type StorageConfig struct {
	S3   *S3Config   `yaml:"s3,omitempty"`
	SFTP *SFTPConfig `yaml:"sftp,omitempty"`
}

// ConverterConfig holds the endpoints the document converter needs for
// source types that require external services.
type ConverterConfig struct {
	CaptionAPIKey    string `yaml:"caption_api_key,omitempty"`  // for image captioning
	CaptionAPIBase   string `yaml:"caption_api_base,omitempty"` // for image captioning
	CaptionModel     string `yaml:"caption_model,omitempty"`    // default: gpt-4o
	DocIntelEndpoint string `yaml:"docintel_endpoint,omitempty"` // for PDF extraction
}

// RetryConfig bounds the fetch pipeline's retry behavior.
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`     // total attempts, default 3
	InitialInterval Duration `yaml:"initial_interval"` // default 500ms, doubled per attempt
}

// EvictorConfig tunes the background cache sweep.
type EvictorConfig struct {
	MaxAge Duration `yaml:"max_age"` // default 1h
}

// Config is chalk's top-level configuration.
type Config struct {
	CachePath string          `yaml:"cache_path"` // locator, e.g. file:///var/cache/chalk
	TTL       Duration        `yaml:"ttl"`        // blackboard entry expiry, default 1h
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Converter ConverterConfig `yaml:"converter,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Evictor   EvictorConfig   `yaml:"evictor,omitempty"`
}

// Default returns a configuration with every tunable at its default.
func Default() *Config {
	return &Config{
		CachePath: "file:///var/cache/chalk",
		TTL:       Duration(time.Hour),
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Converter: ConverterConfig{CaptionModel: "gpt-4o"},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: Duration(500 * time.Millisecond),
		},
		Evictor: EvictorConfig{MaxAge: Duration(time.Hour)},
	}
}

// Load reads and validates a chalk.yml file, applying defaults for anything
// unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = Duration(time.Hour)
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = Duration(500 * time.Millisecond)
	}
	if c.Evictor.MaxAge <= 0 {
		c.Evictor.MaxAge = Duration(time.Hour)
	}
	if c.Converter.CaptionModel == "" {
		c.Converter.CaptionModel = "gpt-4o"
	}
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("cache_path is required")
	}
	if !strings.Contains(c.CachePath, "://") {
		return fmt.Errorf("cache_path %q must be a locator with a scheme prefix", c.CachePath)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Storage.S3 != nil && c.Storage.S3.Endpoint == "" {
		return fmt.Errorf("storage.s3.endpoint is required when s3 is configured")
	}
	if c.Storage.SFTP != nil && c.Storage.SFTP.Addr == "" {
		return fmt.Errorf("storage.sftp.addr is required when sftp is configured")
	}
	return nil
}
