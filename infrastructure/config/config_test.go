package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, StorageDynamoDB, cfg.StorageBackend)
	assert.Equal(t, "GSI1", cfg.GSI1IndexName)
	assert.Equal(t, 500, cfg.CommentTreeLimit)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.TrustIdentityHeader)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", "/tmp/ll")
	t.Setenv("COMMENT_TREE_LIMIT", "50")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CONNECTION_TTL", "30m")
	t.Setenv("TRUST_IDENTITY_HEADER", "yes")
	t.Setenv("LEGACY_VOTE_SCAN", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageBadger, cfg.StorageBackend)
	assert.Equal(t, "/tmp/ll", cfg.BadgerPath)
	assert.Equal(t, 50, cfg.CommentTreeLimit)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 30*time.Minute, cfg.ConnectionTTL)
	assert.True(t, cfg.TrustIdentityHeader)
	assert.True(t, cfg.LegacyVoteScan)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
comment_tree_limit: 42
shutdown_timeout: 3s
allow_origins:
  - https://linklist.example
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "file overrides env")
	assert.Equal(t, 42, cfg.CommentTreeLimit)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://linklist.example"}, cfg.AllowOrigins)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		t.Setenv("CONFIG_FILE", "")
		return fromEnv()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.StorageBackend = "sqlite" }, true},
		{"missing table", func(c *Config) { c.DynamoDBTable = "" }, true},
		{"zero tree limit", func(c *Config) { c.CommentTreeLimit = 0 }, true},
		{"production without key", func(c *Config) { c.Environment = Production }, true},
		{"production with secret", func(c *Config) { c.Environment = Production; c.JWTSecret = "s" }, false},
		{"production trusts header", func(c *Config) {
			c.Environment = Production
			c.JWTSecret = "s"
			c.TrustIdentityHeader = true
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var calls atomic.Int32
	w.OnChange(func(c *Config) {
		if c.LogLevel == "debug" {
			calls.Add(1)
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "debug", w.Current().LogLevel)
}

func TestWatcher_KeepsPreviousOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	w.reload()
	assert.Equal(t, "info", w.Current().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("comment_tree_limit: -1\n"), 0o600))
	w.reload()
	assert.Equal(t, 500, w.Current().CommentTreeLimit)
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(&Config{}, zap.NewNop())
	assert.Error(t, err)
}
