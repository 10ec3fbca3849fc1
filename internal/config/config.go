package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSQLitePath is used when DATABASE_URL is empty.
const DefaultSQLitePath = "device-sim.db"

// ChannelConfig configures the console device channel client.
type ChannelConfig struct {
	// DeviceOrigin is the page origin the channel derives its endpoint from.
	DeviceOrigin *url.URL

	// Display labels for the LED state
	LEDOnLabel  string
	LEDOffLabel string

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
}

// SimulatorConfig configures the device simulator.
type SimulatorConfig struct {
	// Server configuration
	Port        int
	Host        string
	MetricsPort int

	// Database. SQLitePath is used when DatabaseURL is empty.
	DatabaseURL string
	SQLitePath  string

	// Redis
	RedisURL       string
	RedisKeyPrefix string

	// Device behaviour
	BroadcastInterval time.Duration

	// WebSocket endpoint
	AllowedOrigins   []string // Empty allows any origin
	CommandRateLimit int64    // commands per second per client, 0 disables
}

// MinimalConfig holds only the database configuration, for one-shot jobs.
type MinimalConfig struct {
	DatabaseURL string
	SQLitePath  string

	AuditRetention time.Duration
}

// LoadChannel loads the console client configuration.
func LoadChannel() (*ChannelConfig, error) {
	origin, err := url.Parse(getEnv("DEVICE_ORIGIN", "http://192.168.10.1"))
	if err != nil {
		return nil, fmt.Errorf("DEVICE_ORIGIN is invalid: %w", err)
	}
	if origin.Host == "" {
		return nil, fmt.Errorf("DEVICE_ORIGIN must include a host")
	}

	return &ChannelConfig{
		DeviceOrigin: origin,
		LEDOnLabel:   getEnv("LED_ON_LABEL", "AN"),
		LEDOffLabel:  getEnv("LED_OFF_LABEL", "AUS"),
		MetricsAddr:  getEnv("CHANNEL_METRICS_ADDR", ""),
	}, nil
}

// LoadSimulator loads the device simulator configuration.
func LoadSimulator() (*SimulatorConfig, error) {
	port, err := getEnvAsInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	metricsPort, err := getEnvAsInt("METRICS_PORT", 9090)
	if err != nil {
		return nil, err
	}
	intervalMs, err := getEnvAsInt("BROADCAST_INTERVAL_MS", 1000)
	if err != nil {
		return nil, err
	}
	if intervalMs <= 0 {
		return nil, fmt.Errorf("BROADCAST_INTERVAL_MS must be positive")
	}
	rateLimit, err := getEnvAsInt("COMMAND_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	if rateLimit < 0 {
		return nil, fmt.Errorf("COMMAND_RATE_LIMIT must not be negative")
	}

	return &SimulatorConfig{
		Port:              port,
		Host:              getEnv("HOST", "0.0.0.0"),
		MetricsPort:       metricsPort,
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        DefaultSQLitePath,
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", ""),
		BroadcastInterval: time.Duration(intervalMs) * time.Millisecond,
		AllowedOrigins:    parseList(getEnv("ALLOWED_ORIGINS", "")),
		CommandRateLimit:  int64(rateLimit),
	}, nil
}

// LoadMinimal loads database configuration only.
func LoadMinimal() (*MinimalConfig, error) {
	days, err := getEnvAsInt("AUDIT_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("AUDIT_RETENTION_DAYS must be positive")
	}

	return &MinimalConfig{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     DefaultSQLitePath,
		AuditRetention: time.Duration(days) * 24 * time.Hour,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return intValue, nil
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}

	return items
}
