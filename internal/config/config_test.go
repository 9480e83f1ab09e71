package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chalk.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads a full config", func(t *testing.T) {
		path := writeConfig(t, `
cache_path: file:///tmp/chalk-cache
ttl: 30m
redis:
  addr: redis.internal:6379
  password: hunter2
  db: 2
storage:
  s3:
    endpoint: s3.amazonaws.com
    access_key: AK
    secret_key: SK
    use_ssl: true
  sftp:
    addr: sftp.internal:22
    user: chalk
    password: pw
converter:
  caption_api_key: key
  docintel_endpoint: https://docintel.example.com
retry:
  max_attempts: 5
  initial_interval: 250ms
evictor:
  max_age: 2h
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "file:///tmp/chalk-cache", cfg.CachePath)
		assert.Equal(t, 30*time.Minute, cfg.TTL.Std())
		assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
		require.NotNil(t, cfg.Storage.S3)
		assert.Equal(t, "s3.amazonaws.com", cfg.Storage.S3.Endpoint)
		assert.True(t, cfg.Storage.S3.UseSSL)
		require.NotNil(t, cfg.Storage.SFTP)
		assert.Equal(t, "chalk", cfg.Storage.SFTP.User)
		assert.Equal(t, "key", cfg.Converter.CaptionAPIKey)
		assert.Equal(t, "gpt-4o", cfg.Converter.CaptionModel, "default survives partial converter section")
		assert.Equal(t, 5, cfg.Retry.MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval.Std())
		assert.Equal(t, 2*time.Hour, cfg.Evictor.MaxAge.Std())
	})

	t.Run("applies defaults for a minimal config", func(t *testing.T) {
		path := writeConfig(t, `
cache_path: file:///tmp/chalk-cache
redis:
  addr: localhost:6379
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, time.Hour, cfg.TTL.Std())
		assert.Equal(t, 3, cfg.Retry.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialInterval.Std())
		assert.Equal(t, time.Hour, cfg.Evictor.MaxAge.Std())
		assert.Equal(t, "gpt-4o", cfg.Converter.CaptionModel)
		assert.Nil(t, cfg.Storage.S3)
		assert.Nil(t, cfg.Storage.SFTP)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("fails on malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "cache_path: [unclosed")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestDuration(t *testing.T) {
	type doc struct {
		D Duration `yaml:"d"`
	}

	t.Run("parses duration strings", func(t *testing.T) {
		var d doc
		require.NoError(t, yaml.Unmarshal([]byte("d: 90m"), &d))
		assert.Equal(t, 90*time.Minute, d.D.Std())
	})

	t.Run("parses integer seconds", func(t *testing.T) {
		var d doc
		require.NoError(t, yaml.Unmarshal([]byte("d: 3600"), &d))
		assert.Equal(t, time.Hour, d.D.Std())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var d doc
		err := yaml.Unmarshal([]byte("d: soon"), &d)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid duration")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		return cfg
	}

	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("requires cache_path", func(t *testing.T) {
		cfg := valid()
		cfg.CachePath = ""
		assert.ErrorContains(t, cfg.Validate(), "cache_path is required")
	})

	t.Run("cache_path must be a locator", func(t *testing.T) {
		cfg := valid()
		cfg.CachePath = "/var/cache/chalk"
		assert.ErrorContains(t, cfg.Validate(), "scheme prefix")
	})

	t.Run("requires redis addr", func(t *testing.T) {
		cfg := valid()
		cfg.Redis.Addr = ""
		assert.ErrorContains(t, cfg.Validate(), "redis.addr is required")
	})

	t.Run("configured s3 needs an endpoint", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.S3 = &S3Config{}
		assert.ErrorContains(t, cfg.Validate(), "storage.s3.endpoint")
	})

	t.Run("configured sftp needs an addr", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.SFTP = &SFTPConfig{User: "chalk"}
		assert.ErrorContains(t, cfg.Validate(), "storage.sftp.addr")
	})
}
