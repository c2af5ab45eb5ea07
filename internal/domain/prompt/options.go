// Package prompt defines the contract for picking drawing prompts.
package prompt

import "math/rand"

// Option applies a configuration option to the InMemorySource.
type Option func(*InMemorySource)

// WithPrompts replaces the default prompt list.
func WithPrompts(prompts []string) Option {
	return func(s *InMemorySource) {
		if len(prompts) > 0 {
			// Copy to avoid external modifications
			s.prompts = make([]string, len(prompts))
			copy(s.prompts, prompts)
		}
	}
}

// WithRandomSeed seeds the picker for deterministic selection in tests.
func WithRandomSeed(seed int64) Option {
	return func(s *InMemorySource) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible selection, not crypto
	}
}
