// Package matchmaker implements the batching matchmaking engine.
//
// Concurrent play requests are coalesced into batches. Each batch performs
// exactly one open-games lookup against the store, pairs requests greedily
// against that snapshot, and resolves every request with either the joined
// game, a freshly created game, or an error. Amortizing the lookup is the
// point: a batch of a hundred requests costs one store read, not a hundred.
package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artloop/sketchduel/internal/adapters/repository"
	"github.com/artloop/sketchduel/internal/domain/model"
	"github.com/artloop/sketchduel/pkg/logger"
	"github.com/artloop/sketchduel/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultBatchSize    = 100
	defaultLookupLimit  = 100
	defaultStoreTimeout = 5 * time.Second
)

// Game is the document type resolved play requests carry.
// Using the model.Game type for type safety.
type Game = model.Game

// Lookup reads the open-games pool.
type Lookup interface {
	FindOpenGames(ctx context.Context, limit int) ([]model.OpenGame, error)
}

// Mutator joins and creates games on behalf of matched requesters.
type Mutator interface {
	JoinGame(ctx context.Context, gameID, userID string) (model.Game, error)
	CreateGame(ctx context.Context, userID string) (model.Game, error)
}

// Matcher is the engine contract the transport layer consumes.
type Matcher interface {
	// Play blocks until the requester's play request is resolved with a
	// game, or until ctx is done.
	Play(ctx context.Context, requesterID string) (Game, error)
}

// Engine coalesces play requests and resolves them in batches.
type Engine struct {
	lookup  Lookup
	mutator Mutator

	batchSize    int
	lookupLimit  int
	storeTimeout time.Duration

	pending *pendingQueue

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

var _ Matcher = (*Engine)(nil)

// NewEngine creates a matchmaking engine with configuration options.
func NewEngine(lookup Lookup, mutator Mutator, opts ...Option) *Engine {
	e := &Engine{
		lookup:       lookup,
		mutator:      mutator,
		batchSize:    defaultBatchSize,
		lookupLimit:  defaultLookupLimit,
		storeTimeout: defaultStoreTimeout,
		pending:      newPendingQueue(),
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("matchmaker"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Play submits a play request and blocks until it is resolved.
//
// The request stays queued even if ctx is canceled; it is resolved by a
// later batch and the outcome is discarded, which mirrors a caller that
// disconnected mid-match.
func (e *Engine) Play(ctx context.Context, requesterID string) (Game, error) {
	if requesterID == "" {
		return Game{}, ErrInvalidRequester
	}

	select {
	case <-e.shutdown:
		return Game{}, ErrEngineClosed
	default:
	}

	metrics.RecordPlayRequest()
	req := newPlayRequest(requesterID)
	metrics.UpdatePendingRequests(e.pending.push(req))

	select {
	case out := <-req.outcome:
		return out.game, out.err
	case <-ctx.Done():
		return Game{}, ctx.Err()
	case <-e.shutdown:
		return Game{}, ErrEngineClosed
	}
}

// Run starts the dispatcher loop. It returns when ctx is canceled or
// Shutdown is called.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.failPending(ctx.Err())
			return
		case <-e.shutdown:
			e.failPending(ErrEngineClosed)
			return
		case <-e.pending.wake:
			batch := e.pending.take(e.batchSize)
			metrics.UpdatePendingRequests(e.pending.len())
			if len(batch) > 0 {
				e.processBatch(ctx, batch)
			}
		}
	}
}

// Shutdown gracefully stops the dispatcher.
func (e *Engine) Shutdown(ctx context.Context) error {
	select {
	case <-e.shutdown:
	default:
		close(e.shutdown)
	}

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		e.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// failPending resolves everything still queued with err.
func (e *Engine) failPending(err error) {
	for _, req := range e.pending.drain() {
		req.resolve(Game{}, err)
	}
	metrics.UpdatePendingRequests(0)
}

// assignment records the pairing decision for one request of a batch.
type assignment struct {
	req    *playRequest
	gameID string // empty means create a new game
}

// processBatch resolves one batch of play requests against a single
// open-games snapshot.
func (e *Engine) processBatch(ctx context.Context, batch []*playRequest) {
	start := time.Now()
	defer func() {
		metrics.RecordBatchLatency(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordBatch(len(batch))

	pool := e.fetchPool(ctx)
	metrics.UpdateOpenGamesInPool(len(pool))

	assignments := pairBatch(batch, pool)
	e.applyAssignments(ctx, assignments)
}

// fetchPool performs the batch's single store lookup. A lookup failure
// degrades to an empty pool so every request in the batch creates a game
// rather than failing outright.
func (e *Engine) fetchPool(ctx context.Context) []model.OpenGame {
	lookupStart := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	pool, err := e.lookup.FindOpenGames(storeCtx, e.lookupLimit)
	metrics.RecordLookupLatency(float64(time.Since(lookupStart).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("matchmaker", "lookup_failed")
		e.logger.Error(ctx, "open games lookup failed", logger.Error(err))
		return nil
	}
	return pool
}

// pairBatch matches requests against the pool greedily and in arrival
// order. Each pool slot is consumed at most once; a requester never claims
// a slot whose first player is the requester. Requests that find no slot
// are assigned a fresh game.
func pairBatch(batch []*playRequest, pool []model.OpenGame) []assignment {
	claimed := make(map[string]bool, len(pool))
	taken := make([]bool, len(pool))

	assignments := make([]assignment, 0, len(batch))
	for _, req := range batch {
		gameID := ""
		for i, slot := range pool {
			if taken[i] {
				continue
			}
			if slot.FirstUserID == req.userID {
				metrics.RecordSelfMatchSkip()
				continue
			}
			if claimed[slot.GameID] {
				panic(fmt.Sprintf("matchmaker: slot %s assigned twice in one batch", slot.GameID))
			}
			taken[i] = true
			claimed[slot.GameID] = true
			gameID = slot.GameID
			break
		}
		assignments = append(assignments, assignment{req: req, gameID: gameID})
	}
	return assignments
}

// applyAssignments performs the store mutations for a batch concurrently
// and resolves each request with its outcome. A failed join is final for
// this request; its slot is not offered to anyone else.
func (e *Engine) applyAssignments(ctx context.Context, assignments []assignment) {
	mutStart := time.Now()
	defer func() {
		metrics.RecordMutationLatency(float64(time.Since(mutStart).Milliseconds()))
	}()

	storeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, a := range assignments {
		wg.Add(1)
		go func(a assignment) {
			defer wg.Done()

			if a.gameID == "" {
				game, err := e.mutator.CreateGame(storeCtx, a.req.userID)
				if err != nil {
					metrics.RecordErrorByComponent("matchmaker", "create_failed")
					e.logger.Error(ctx, "game creation failed",
						logger.String("userID", a.req.userID),
						logger.Error(err),
					)
				} else {
					metrics.RecordGameCreated()
				}
				a.req.resolve(game, err)
				return
			}

			game, err := e.mutator.JoinGame(storeCtx, a.gameID, a.req.userID)
			if err != nil {
				// Only a lost race for the slot counts as a conflict;
				// timeouts and transport failures are store errors.
				if errors.Is(err, repository.ErrJoinConflict) {
					metrics.RecordJoinConflict()
				} else {
					metrics.RecordErrorByComponent("matchmaker", "join_failed")
				}
				e.logger.Warn(ctx, "join failed",
					logger.String("gameID", a.gameID),
					logger.String("userID", a.req.userID),
					logger.Error(err),
				)
			} else {
				metrics.RecordGameJoined()
			}
			a.req.resolve(game, err)
		}(a)
	}
	wg.Wait()
}
