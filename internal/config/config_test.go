package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "asha.db", cfg.DatabaseDSN())
	assert.Equal(t, 2000, cfg.Pipeline.MaxMessageLength)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asha.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  postgres:
    dsn: postgres://asha@localhost/asha
pipeline:
  candidate_limit: 5
retention:
  enabled: true
  max_age: 72h
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://asha@localhost/asha", cfg.DatabaseDSN())
	assert.Equal(t, 5, cfg.Pipeline.CandidateLimit)
	// unset keys keep their defaults
	assert.Equal(t, 3, cfg.Pipeline.KnowledgeLimit)
	assert.Equal(t, 72*time.Hour, cfg.Retention.MaxAge)
	assert.Equal(t, "@daily", cfg.Retention.Schedule)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/override.db")
	t.Setenv("REDIS_URL", "redis://localhost:6380/1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEXICON_PATH", "/etc/asha/lexicon.yaml")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_API_KEYS", "k1, k2,,")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("RETENTION_DAYS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/override.db", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis://localhost:6380/1", cfg.Cache.Redis.URL)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "/etc/asha/lexicon.yaml", cfg.Lexicon.Path)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.True(t, cfg.Observability.OTEL.Enabled)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention.MaxAge)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"database driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"postgres dsn", func(c *Config) { c.Database.Driver = "postgres" }, "postgres dsn is required"},
		{"cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "invalid cache driver"},
		{"knowledge limit", func(c *Config) { c.Pipeline.KnowledgeLimit = 0 }, "knowledge_limit"},
		{"candidate limit", func(c *Config) { c.Pipeline.CandidateLimit = 21 }, "candidate_limit"},
		{"message length", func(c *Config) { c.Pipeline.MaxMessageLength = 0 }, "max_message_length"},
		{"auth keys", func(c *Config) { c.Auth.Enabled = true }, "no api keys"},
		{"retention age", func(c *Config) { c.Retention.Enabled = true; c.Retention.MaxAge = 0 }, "max_age"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
