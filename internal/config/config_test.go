package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChannel_Defaults(t *testing.T) {
	t.Setenv("DEVICE_ORIGIN", "")
	t.Setenv("LED_ON_LABEL", "")
	t.Setenv("LED_OFF_LABEL", "")
	t.Setenv("CHANNEL_METRICS_ADDR", "")

	cfg, err := LoadChannel()
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.10.1", cfg.DeviceOrigin.String())
	assert.Equal(t, "AN", cfg.LEDOnLabel)
	assert.Equal(t, "AUS", cfg.LEDOffLabel)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadChannel_Overrides(t *testing.T) {
	t.Setenv("DEVICE_ORIGIN", "https://lamp.local:8443")
	t.Setenv("LED_ON_LABEL", "ON")
	t.Setenv("LED_OFF_LABEL", "OFF")
	t.Setenv("CHANNEL_METRICS_ADDR", ":9100")

	cfg, err := LoadChannel()
	require.NoError(t, err)
	assert.Equal(t, "lamp.local:8443", cfg.DeviceOrigin.Host)
	assert.Equal(t, "ON", cfg.LEDOnLabel)
	assert.Equal(t, "OFF", cfg.LEDOffLabel)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadChannel_RejectsOriginWithoutHost(t *testing.T) {
	t.Setenv("DEVICE_ORIGIN", "not-a-url")
	_, err := LoadChannel()
	assert.Error(t, err)
}

func TestLoadSimulator_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "HOST", "METRICS_PORT", "DATABASE_URL", "REDIS_URL", "REDIS_KEY_PREFIX", "BROADCAST_INTERVAL_MS", "ALLOWED_ORIGINS", "COMMAND_RATE_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadSimulator()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLitePath)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, time.Second, cfg.BroadcastInterval)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, int64(10), cfg.CommandRateLimit)
}

func TestLoadSimulator_ParsesLists(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://192.168.10.1 , ,http://localhost:8080")
	t.Setenv("BROADCAST_INTERVAL_MS", "250")

	cfg, err := LoadSimulator()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://192.168.10.1", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.BroadcastInterval)
}

func TestLoadSimulator_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "http"},
		{"zero interval", "BROADCAST_INTERVAL_MS", "0"},
		{"negative rate limit", "COMMAND_RATE_LIMIT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadSimulator()
			assert.Error(t, err)
		})
	}
}

func TestLoadMinimal(t *testing.T) {
	t.Setenv("AUDIT_RETENTION_DAYS", "7")
	t.Setenv("DATABASE_URL", "postgres://localhost/sim")

	cfg, err := LoadMinimal()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.AuditRetention)
	assert.Equal(t, "postgres://localhost/sim", cfg.DatabaseURL)

	t.Setenv("AUDIT_RETENTION_DAYS", "0")
	_, err = LoadMinimal()
	assert.Error(t, err)
}
