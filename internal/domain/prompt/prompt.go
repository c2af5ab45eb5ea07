// Package prompt defines the contract for picking drawing prompts.
package prompt

import (
	"context"
	"math/rand"
	"sync"
)

// Default prompt configuration constants.
const defaultRandomSeed = 42

// defaultPrompts seeds the in-memory source when no custom list is given.
var defaultPrompts = []string{
	"a fish riding a bicycle",
	"a robot walking a dog",
	"a castle made of cheese",
	"a dinosaur at a birthday party",
	"a penguin on vacation",
	"a dragon learning to swim",
	"a snail winning a race",
	"an octopus playing the drums",
}

// Source provides drawing prompts for freshly created games.
type Source interface {
	// Random returns a prompt, honoring ctx for cancellation.
	Random(ctx context.Context) (string, error)
}

// InMemorySource implements Source over a fixed prompt list.
type InMemorySource struct {
	mu      sync.Mutex
	prompts []string
	rng     *rand.Rand
}

// NewInMemorySource creates a new in-memory prompt source with options.
func NewInMemorySource(opts ...Option) *InMemorySource {
	s := &InMemorySource{
		prompts: defaultPrompts,
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Random returns one prompt picked uniformly from the list.
func (s *InMemorySource) Random(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.prompts) == 0 {
		return "", ErrNoPrompts
	}
	return s.prompts[s.rng.Intn(len(s.prompts))], nil
}

// Add appends a new prompt to the list.
func (s *InMemorySource) Add(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyPrompt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, text)
	return nil
}

// Len returns the number of prompts currently available.
func (s *InMemorySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
