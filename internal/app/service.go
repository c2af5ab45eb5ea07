// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	repository "github.com/artloop/sketchduel/internal/adapters/repository"
	"github.com/artloop/sketchduel/internal/domain/dedupe"
	"github.com/artloop/sketchduel/internal/domain/model"
	"github.com/artloop/sketchduel/internal/domain/prompt"
	"github.com/artloop/sketchduel/internal/matchmaker"
	"github.com/artloop/sketchduel/pkg/logger"
	"github.com/artloop/sketchduel/pkg/metrics"
)

// Store backend names accepted by WithStoreBackend.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// defaultPrompts seeds the prompt source when the config provides none.
var defaultPrompts = []string{
	"a cat riding a bicycle",
	"a lighthouse in a thunderstorm",
	"a robot making breakfast",
	"a dragon at the dentist",
	"an octopus playing the drums",
	"a snowman on the beach",
	"a wizard stuck in traffic",
	"a penguin delivering mail",
	"a ghost doing yoga",
	"a pirate walking a dog",
}

// storeMutator adapts the repository store and prompt source to the
// matchmaker.Mutator interface. Every engine-created game is public and
// seeded with a random prompt.
type storeMutator struct {
	store   repository.Store
	prompts prompt.Source
}

func (m *storeMutator) JoinGame(ctx context.Context, gameID, userID string) (model.Game, error) {
	return m.store.JoinGame(ctx, gameID, userID)
}

func (m *storeMutator) CreateGame(ctx context.Context, userID string) (model.Game, error) {
	text, err := m.prompts.Random(ctx)
	if err != nil {
		return model.Game{}, fmt.Errorf("pick prompt: %w", err)
	}
	return m.store.CreateGame(ctx, userID, text, false)
}

// Service implements the API dependencies for the drawing duel system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	prompts prompt.Source
	engine  *matchmaker.Engine

	// Configuration
	storeBackend string
	redisAddr    string
	shardCount   int
	dedupeSize   int
	batchSize    int
	lookupLimit  int
	storeTimeout time.Duration
	promptList   []string

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreBackend selects the game store implementation ("memory" or "redis").
func WithStoreBackend(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
	}
}

// WithRedisAddr sets the Redis address for the redis store backend.
func WithRedisAddr(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
		}
	}
}

// WithShardCount sets the shard count for the in-memory store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithDedupeSize sets the size of the vote deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithBatchSize caps the matchmaking batch size.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithLookupLimit caps the open-games snapshot fetched per batch.
func WithLookupLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.lookupLimit = limit
		}
	}
}

// WithStoreTimeout bounds store calls made on behalf of a matchmaking batch.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithPrompts replaces the default drawing prompt list.
func WithPrompts(prompts []string) Option {
	return func(s *Service) {
		if len(prompts) > 0 {
			s.promptList = prompts
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend: StoreMemory,
		redisAddr:    "localhost:6379",
		shardCount:   16,
		dedupeSize:   50000,
		batchSize:    100,
		lookupLimit:  100,
		storeTimeout: 5 * time.Second,
		promptList:   defaultPrompts,
		stopCh:       make(chan struct{}),
		logger:       nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting sketchduel service...")

	// Initialize components
	switch s.storeBackend {
	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: s.redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		s.store = repository.NewRedisStore(ctx, rdb)
		s.logger.Info(ctx, "using redis store", logger.String("addr", s.redisAddr))
	case StoreMemory:
		s.store = repository.NewMemStore(ctx, repository.WithShardCount(s.shardCount))
		s.logger.Info(ctx, "using in-memory store", logger.Int("shards", s.shardCount))
	default:
		return fmt.Errorf("unknown store backend %q", s.storeBackend)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.prompts = prompt.NewInMemorySource(
		prompt.WithPrompts(s.promptList),
	)

	// Create and start the matchmaking engine
	s.engine = matchmaker.NewEngine(
		s.store,
		&storeMutator{store: s.store, prompts: s.prompts},
		matchmaker.WithBatchSize(s.batchSize),
		matchmaker.WithLookupLimit(s.lookupLimit),
		matchmaker.WithStoreTimeout(s.storeTimeout),
	)
	go s.engine.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "sketchduel service started",
		logger.String("store", s.storeBackend),
		logger.Int("batchSize", s.batchSize),
		logger.Int("lookupLimit", s.lookupLimit),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping sketchduel service...")

	// Drain the matchmaking engine first so no request touches a closed store
	if s.engine != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = s.engine.Shutdown(shutdownCtx)
		cancel()
	}

	// Close the store
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "sketchduel service stopped")
}

// Play submits a matchmaking request and blocks until it resolves.
func (s *Service) Play(ctx context.Context, requesterID string) (model.Game, error) {
	return s.engine.Play(ctx, requesterID)
}

// NewGame creates a game directly, bypassing matchmaking.
func (s *Service) NewGame(ctx context.Context, userID string, private bool) (model.Game, error) {
	text, err := s.prompts.Random(ctx)
	if err != nil {
		return model.Game{}, fmt.Errorf("pick prompt: %w", err)
	}
	game, err := s.store.CreateGame(ctx, userID, text, private)
	if err != nil {
		return model.Game{}, err
	}
	metrics.RecordGameCreated()
	return game, nil
}

// JoinGame seats the user in a specific game by id.
func (s *Service) JoinGame(ctx context.Context, gameID, userID string) (model.Game, error) {
	game, err := s.store.JoinGame(ctx, gameID, userID)
	if err != nil {
		return model.Game{}, err
	}
	metrics.RecordGameJoined()
	return game, nil
}

// SubmitDrawing stores the user's drawing for a game.
func (s *Service) SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error) {
	game, err := s.store.SubmitDrawing(ctx, gameID, userID, drawing)
	if err != nil {
		return model.Game{}, err
	}
	metrics.RecordDrawingSubmitted()
	return game, nil
}

// Vote registers a spectator vote on a completed game.
func (s *Service) Vote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error) {
	game, err := s.store.CastVote(ctx, gameID, voterID, voteForID)
	if err != nil {
		return model.Game{}, err
	}
	metrics.RecordVoteCast()
	return game, nil
}

// GetGame returns a game by id. A seated player may read their own game at
// any stage; everyone else only sees games with both seats taken.
func (s *Service) GetGame(ctx context.Context, gameID, userID string) (model.Game, error) {
	if userID != "" {
		game, err := s.store.GameForUser(ctx, gameID, userID)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, repository.ErrNotMember) {
			return model.Game{}, err
		}
	}
	return s.store.GetGame(ctx, gameID)
}

// ListGames returns completed public games for browsing.
func (s *Service) ListGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error) {
	return s.store.ListCompletedGames(ctx, userID, exclude, limit)
}

// Profile returns the user's profile, creating it on first sight.
func (s *Service) Profile(ctx context.Context, userID, displayName string) (model.Profile, error) {
	return s.store.EnsureProfile(ctx, userID, displayName)
}

// GamesForUser returns the games on the user's profile.
func (s *Service) GamesForUser(ctx context.Context, userID string) ([]model.Game, error) {
	return s.store.GamesForUser(ctx, userID)
}

// SeenAndRecord atomically checks whether a vote key was seen and records
// it if not. Returns true if the key was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordVoteDuplicate()
	}
	return seen
}

// Unrecord removes a vote key from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"store":       s.storeBackend,
		"batchSize":   s.batchSize,
		"lookupLimit": s.lookupLimit,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		totalGames := s.store.CountGames(ctx)
		totalProfiles := s.store.CountProfiles(ctx)

		stats["totalGames"] = totalGames
		stats["totalProfiles"] = totalProfiles

		// Update metrics
		metrics.UpdateTotalGames(totalGames)
		metrics.UpdateTotalProfiles(totalProfiles)
	}

	return stats
}
