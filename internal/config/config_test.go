package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", name), []byte(body), 0o600))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	writeConfig(t, "config.test.yaml", `
port: 9000
auth:
  jwt_secret: s3cret
voice:
  api_key: key
  api_secret: secret
  token_ttl: 5m
  livekit_url: wss://lk.example.com
`)
	t.Setenv("FLOWON_VOICE_PROVIDER", "livekit")

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--port", "9100"}))
	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Voice.TokenTTL)
	assert.Equal(t, "livekit", cfg.Voice.Provider)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 5, cfg.Signal.JoinLimit)
	assert.Equal(t, "wss://lk.example.com", cfg.RoomURL())
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "builtin", cfg.Voice.Provider)
	assert.Equal(t, "ws://127.0.0.1:8080/api/ws/signal", cfg.RoomURL())
	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:  8080,
		Auth:  AuthConfig{JWTSecret: "x"},
		Voice: VoiceConfig{Provider: "livekit", APIKey: "k", APISecret: "s"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "livekit_url")

	cfg.Voice.Provider = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unknown voice.provider")

	cfg.Voice.Provider = "builtin"
	assert.NoError(t, cfg.Validate())
}

func TestLoadClient(t *testing.T) {
	writeConfig(t, "voicectl.test.yaml", `
backend_url: http://backend:8080
auth_token: from-file
connect_timeout: 3s
`)
	t.Setenv("FLOWON_AUTH_TOKEN", "from-env")

	fs := ClientFlags()
	require.NoError(t, fs.Parse([]string{"--transport", "livekit"}))
	cfg, err := LoadClient(fs)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.BackendURL)
	assert.Equal(t, "from-env", cfg.AuthToken)
	assert.Equal(t, "livekit", cfg.Transport)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.TeardownTimeout)
	require.NoError(t, cfg.Validate())
}
