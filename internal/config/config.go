// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Feeds    FeedConfig
	Limits   LimitsConfig
	Ingest   IngestConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: without a URL, ingest is disabled and the
// index feed source is unavailable.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Feed source kinds.
const (
	SourceDir   = "dir"
	SourceHTTP  = "http"
	SourceIndex = "index"
)

// FeedConfig holds settings for locating and loading feed files.
type FeedConfig struct {
	// Source selects where feed files come from: dir, http or index (default: dir)
	Source string `env:"FEED_SOURCE" default:"dir"`

	// Dir is the root of <feed>/<YYYY-MM-DD>.csv files (default: ./data/feeds)
	Dir string `env:"FEED_DIR" default:"./data/feeds"`

	// BaseURL is the root URL when Source is http
	BaseURL string `env:"FEED_BASE_URL"`

	// FetchTimeout bounds one HTTP request for a feed file (default: 30s)
	FetchTimeout time.Duration `env:"FEED_FETCH_TIMEOUT" default:"30s"`

	// CacheTTL is how long a parsed day stays fresh (default: 5m)
	CacheTTL time.Duration `env:"FEED_CACHE_TTL" default:"5m"`

	// MaxConcurrent is the number of feed files parsed in parallel (default: 4)
	MaxConcurrent int `env:"FEED_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a load waits for a parse slot (default: 10s)
	MaxWait time.Duration `env:"FEED_MAX_WAIT" default:"10s"`

	// Watch invalidates cached days when files under Dir change (default: true)
	Watch bool `env:"FEED_WATCH" default:"true"`

	// LegacyRelease keeps the implicit-release reading of old feeds (default: true)
	LegacyRelease bool `env:"FEED_LEGACY_RELEASE" default:"true"`
}

// LimitsConfig points at an optional YAML limit set.
type LimitsConfig struct {
	// File is a YAML limit set; empty uses the built-in VHP limits
	File string `env:"LIMITS_FILE"`
}

// IngestConfig holds settings for the background ingest job.
type IngestConfig struct {
	// Enabled turns on periodic ingest into the database (default: false)
	Enabled bool `env:"INGEST_ENABLED" default:"false"`

	// Interval is how often today's feeds are ingested (default: 15m)
	Interval time.Duration `env:"INGEST_INTERVAL" default:"15m"`

	// Feeds is a comma-separated list of feed keys; empty means all
	Feeds []string `env:"INGEST_FEEDS"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
