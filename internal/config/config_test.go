package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "https://exp.host/--/api/v2/push/send", cfg.Push.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Push.RequestTimeout)
	assert.Equal(t, 100, cfg.Push.BatchSize)
	assert.Equal(t, 4, cfg.Push.Concurrency)
	assert.Equal(t, "default", cfg.Push.Sound)
	assert.Equal(t, 500.0, cfg.Broadcast.DefaultRadius)
	assert.Zero(t, cfg.Broadcast.MaxRadius)
	assert.Equal(t, "SOS Alert", cfg.Broadcast.DefaultTitle)
	assert.Equal(t, "A nearby user needs help", cfg.Broadcast.DefaultBody)
	assert.Equal(t, time.Duration(0), cfg.Registry.MaxAge)
	assert.Equal(t, StorageDriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "./data/registry.db", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Auth.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  addr: ":9000"
push:
  batch_size: 50
  request_timeout: 2s
broadcast:
  default_radius: 750
registry:
  max_age: 30m
storage:
  driver: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 50, cfg.Push.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Push.RequestTimeout)
	assert.Equal(t, 750.0, cfg.Broadcast.DefaultRadius)
	assert.Equal(t, 30*time.Minute, cfg.Registry.MaxAge)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	// untouched keys keep defaults
	assert.Equal(t, 4, cfg.Push.Concurrency)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SOS_BROADCAST_HTTP_ADDR", ":7777")
	t.Setenv("SOS_BROADCAST_PUSH_CONCURRENCY", "8")
	t.Setenv("SOS_BROADCAST_STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTP.Addr)
	assert.Equal(t, 8, cfg.Push.Concurrency)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"batch too large":  "SOS_BROADCAST_PUSH_BATCH_SIZE=101",
		"batch zero":       "SOS_BROADCAST_PUSH_BATCH_SIZE=0",
		"radius zero":      "SOS_BROADCAST_BROADCAST_DEFAULT_RADIUS=0",
		"unknown driver":   "SOS_BROADCAST_STORAGE_DRIVER=redis",
		"negative max age": "SOS_BROADCAST_REGISTRY_MAX_AGE=-1m",
		"zero timeout":     "SOS_BROADCAST_PUSH_REQUEST_TIMEOUT=0s",
		"negative timeout": "SOS_BROADCAST_PUSH_REQUEST_TIMEOUT=-5s",
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			key, value, _ := strings.Cut(kv, "=")
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
