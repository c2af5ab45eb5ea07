// Package matchmaker implements the batching matchmaking engine.
package matchmaker

import (
	"time"

	"github.com/artloop/sketchduel/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBatchSize caps the number of play requests resolved per batch.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithLookupLimit caps the open-games snapshot size fetched per batch.
func WithLookupLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.lookupLimit = n
		}
	}
}

// WithStoreTimeout bounds each store call made on behalf of a batch.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storeTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger logger.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
