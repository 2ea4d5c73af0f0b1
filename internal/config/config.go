// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors are wrapped with this package's sentinels.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// CatalogPath points at the CSV catalog (movie_id, title, optional year).
	CatalogPath string `koanf:"catalog_path" validate:"required"`

	// SimilarityPath points at the JSON similarity matrix.
	SimilarityPath string `koanf:"similarity_path" validate:"required"`

	// TopN is how many recommendations are returned.
	TopN int `koanf:"top_n" validate:"min=1,max=50"`

	// ResolverWorkers bounds concurrent poster lookups.
	ResolverWorkers int `koanf:"resolver_workers" validate:"min=1,max=64"`

	// PlaceholderURL is shown when no poster can be found.
	PlaceholderURL string `koanf:"placeholder_url" validate:"required,url"`

	OMDb  OMDb  `koanf:"omdb"`
	Cache Cache `koanf:"cache"`
	HTTP  HTTP  `koanf:"http"`
}

// OMDb configures the metadata API client.
type OMDb struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	APIKey  string `koanf:"api_key"`

	// Timeout bounds every individual lookup tier.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerSecond caps outgoing calls; 0 disables the limiter.
	RatePerSecond   float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst           int           `koanf:"burst" validate:"min=1"`
	BreakerFailures int           `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// Cache configures the poster cache.
type Cache struct {
	// Driver is none, memory or sqlite.
	Driver   string        `koanf:"driver" validate:"oneof=none memory sqlite"`
	Path     string        `koanf:"path" validate:"required_if=Driver sqlite"`
	Capacity int           `koanf:"capacity" validate:"min=1"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

// HTTP configures the API server.
type HTTP struct {
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		CatalogPath:     "data/movies.csv",
		SimilarityPath:  "data/similarity.json",
		TopN:            5,
		ResolverWorkers: 5,
		PlaceholderURL:  "https://m.media-amazon.com/images/G/01/imdb/images-ANDW73HA/favicon-192x192.png",
		OMDb: OMDb{
			BaseURL:         "https://www.omdbapi.com/",
			Timeout:         10 * time.Second,
			RatePerSecond:   10,
			Burst:           5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Cache: Cache{
			Driver:   "memory",
			Path:     "data/posters.db",
			Capacity: 10_000,
			TTL:      24 * time.Hour,
		},
		HTTP: HTTP{
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
			ShutdownTimeout:   10 * time.Second,
		},
	}
}
