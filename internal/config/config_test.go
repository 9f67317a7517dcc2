package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so ambient values cannot leak
// into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT",
		"STATIC_DIR", "PRESENTATION_NAME",
		"ANNOUNCER_ADDR", "ANNOUNCER_PORT", "ANNOUNCER_AUTH_KEY",
		"PING_ENABLED", "PING_INTERVAL",
		"MAX_CONNECTIONS", "MAX_CONNECTIONS_PER_IP", "CONNECTION_RATE", "CONNECTION_BURST",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "5050", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "docs", cfg.StaticDir)
	assert.Equal(t, "2437", cfg.AnnouncerPort)
	assert.Empty(t, cfg.AnnouncerAddr)
	assert.True(t, cfg.PingEnabled)
	assert.Equal(t, time.Second, cfg.PingInterval)
	assert.Equal(t, int64(100), cfg.MaxConnections)
	assert.Equal(t, 10, cfg.MaxConnectionsPerIP)
	assert.Equal(t, float64(10), cfg.ConnectionRate)
	assert.Equal(t, 20, cfg.ConnectionBurst)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("PING_ENABLED", "false")
	t.Setenv("PING_INTERVAL", "250ms")
	t.Setenv("MAX_CONNECTIONS", "5")
	t.Setenv("ANNOUNCER_ADDR", "127.0.0.1:2437")
	t.Setenv("ANNOUNCER_AUTH_KEY", "secret")
	t.Setenv("PRESENTATION_NAME", "physik")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.PingEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.PingInterval)
	assert.Equal(t, int64(5), cfg.MaxConnections)
	assert.Equal(t, "127.0.0.1:2437", cfg.AnnouncerAddr)
	assert.Equal(t, "secret", cfg.AnnouncerAuthKey)
	assert.Equal(t, "physik", cfg.PresentationName)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"ping enabled not a bool", "PING_ENABLED", "maybe"},
		{"ping interval not a duration", "PING_INTERVAL", "soon"},
		{"ping interval not positive", "PING_INTERVAL", "-1s"},
		{"max connections not a number", "MAX_CONNECTIONS", "many"},
		{"max connections not positive", "MAX_CONNECTIONS", "0"},
		{"connection rate not a number", "CONNECTION_RATE", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_AnnouncerAddrRequiresAuthKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANNOUNCER_ADDR", "127.0.0.1:2437")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANNOUNCER_AUTH_KEY")
}

func TestIndexFile(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "index.html", cfg.IndexFile())

	cfg.PresentationName = "physik"
	assert.Equal(t, "physik.html", cfg.IndexFile())
}
