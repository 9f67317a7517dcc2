// Package config loads the environment-based application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	// Static presentation assets. PresentationName selects the index file
	// served at /, falling back to index.html.
	StaticDir        string
	PresentationName string

	// Announcer placement. When AnnouncerAddr is set the server drives a
	// remote announcer process over the boundary channel instead of an
	// in-process engine; AnnouncerPort is where cmd/announcer binds on
	// loopback. Both sides must share AnnouncerAuthKey.
	AnnouncerAddr    string
	AnnouncerPort    string
	AnnouncerAuthKey string

	// Keep-alive driver.
	PingEnabled  bool
	PingInterval time.Duration

	// SSE connection limits.
	MaxConnections      int64
	MaxConnectionsPerIP int
	ConnectionRate      float64
	ConnectionBurst     int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "5050"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		StaticDir:        getEnv("STATIC_DIR", "docs"),
		PresentationName: getEnv("PRESENTATION_NAME", ""),
		AnnouncerAddr:    getEnv("ANNOUNCER_ADDR", ""),
		AnnouncerPort:    getEnv("ANNOUNCER_PORT", "2437"),
		AnnouncerAuthKey: getEnv("ANNOUNCER_AUTH_KEY", ""),
	}

	var err error
	if cfg.PingEnabled, err = getBoolEnv("PING_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.PingInterval, err = getDurationEnv("PING_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxConnections, err = getInt64Env("MAX_CONNECTIONS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxConnectionsPerIP, err = getIntEnv("MAX_CONNECTIONS_PER_IP", 10); err != nil {
		return nil, err
	}
	if cfg.ConnectionRate, err = getFloatEnv("CONNECTION_RATE", 10); err != nil {
		return nil, err
	}
	if cfg.ConnectionBurst, err = getIntEnv("CONNECTION_BURST", 20); err != nil {
		return nil, err
	}

	if cfg.PingInterval <= 0 {
		return nil, fmt.Errorf("PING_INTERVAL must be positive")
	}
	if cfg.MaxConnections <= 0 {
		return nil, fmt.Errorf("MAX_CONNECTIONS must be positive")
	}
	if cfg.AnnouncerAddr != "" && cfg.AnnouncerAuthKey == "" {
		return nil, fmt.Errorf("ANNOUNCER_AUTH_KEY is required when ANNOUNCER_ADDR is set")
	}

	return cfg, nil
}

// IndexFile returns the presentation entry page inside StaticDir.
func (c *Config) IndexFile() string {
	if c.PresentationName != "" {
		return c.PresentationName + ".html"
	}
	return "index.html"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}
