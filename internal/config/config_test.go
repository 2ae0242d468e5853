package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv(EnvTokenSecret, "")

	cfg, err := Parse([]byte("http:\n  token_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Minute, cfg.HTTP.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, StoreMutex, cfg.Store.Type)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParse_Values(t *testing.T) {
	t.Setenv(EnvTokenSecret, "")

	data := []byte(`
grpc:
  addr: ":9000"
http:
  addr: "127.0.0.1:9001"
  token_secret: abc
  token_ttl: 5m
  allowed_origins: ["http://localhost:3000"]
store:
  type: lmax
log:
  level: debug
  format: text
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.GRPC.Addr)
	assert.Equal(t, "127.0.0.1:9001", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Minute, cfg.HTTP.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, StoreLMAX, cfg.Store.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_EnvSecretOverrides(t *testing.T) {
	t.Setenv(EnvTokenSecret, "from-env")

	cfg, err := Parse([]byte("http:\n  token_secret: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.HTTP.TokenSecret)

	cfg, err = Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.HTTP.TokenSecret)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv(EnvTokenSecret, "")

	tests := []struct {
		name string
		data string
	}{
		{"missing secret", "store:\n  type: mutex\n"},
		{"unknown store", "http:\n  token_secret: x\nstore:\n  type: redis\n"},
		{"unknown level", "http:\n  token_secret: x\nlog:\n  level: loud\n"},
		{"unknown format", "http:\n  token_secret: x\nlog:\n  format: xml\n"},
		{"malformed yaml", "grpc: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvTokenSecret, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  token_secret: x\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.HTTP.TokenSecret)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	text := LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf)
	assert.True(t, text.Enabled(context.Background(), slog.LevelDebug))
	text.Debug("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
