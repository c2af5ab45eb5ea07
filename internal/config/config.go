// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the game store backend: memory or redis.
	Store string `koanf:"store"`

	// RedisAddr configures the Redis address used by the redis backend.
	RedisAddr string `koanf:"redis_addr"`

	// ShardCount configures the number of shards in the in-memory store.
	ShardCount int `koanf:"shard_count"`

	// BatchSize caps the number of play requests resolved per matchmaking batch.
	BatchSize int `koanf:"batch_size"`

	// LookupLimit caps the open-games snapshot fetched per batch.
	LookupLimit int `koanf:"lookup_limit"`

	// StoreTimeoutMS bounds each store call made on behalf of a batch.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// DedupeSize sets the size of the vote deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /games?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// Prompts replaces the built-in drawing prompt list when non-empty.
	Prompts []string `koanf:"prompts"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		Store:          "memory",
		RedisAddr:      "localhost:6379",
		ShardCount:     16,
		BatchSize:      100,
		LookupLimit:    100,
		StoreTimeoutMS: 5000,
		DedupeSize:     50_000,
		MaxListLimit:   100,
	}
	return c
}
