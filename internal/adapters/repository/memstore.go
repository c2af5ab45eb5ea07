package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artloop/sketchduel/internal/domain/model"
	"github.com/artloop/sketchduel/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Games and profiles live in FNV-sharded maps so writes to unrelated
// documents never contend. Open games are additionally tracked in a single
// ordered index so FindOpenGames returns a deterministic, creation-ordered
// pool without scanning shards.

const defaultShardCount = 16

// gameShard holds a slice of the game documents.
type gameShard struct {
	mu    sync.RWMutex
	games map[string]*model.Game
}

// profileShard holds a slice of the profile documents.
type profileShard struct {
	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

// openIndex tracks open public game ids in creation order. Entries are
// removed lazily when a read discovers the game is no longer open.
type openIndex struct {
	mu  sync.Mutex
	ids []string
}

func (x *openIndex) add(id string) {
	x.mu.Lock()
	x.ids = append(x.ids, id)
	x.mu.Unlock()
}

func (x *openIndex) snapshot() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

// compact rewrites the index keeping only ids still reported open.
func (x *openIndex) compact(stillOpen func(id string) bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	kept := x.ids[:0]
	for _, id := range x.ids {
		if stillOpen(id) {
			kept = append(kept, id)
		}
	}
	x.ids = kept
}

type MemStore struct {
	gameShards    []*gameShard
	profileShards []*profileShard
	open          openIndex
	shardCount    int

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemStore)(nil)

// NewMemStore constructs an in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.gameShards = make([]*gameShard, s.shardCount)
	s.profileShards = make([]*profileShard, s.shardCount)
	for i := 0; i < s.shardCount; i++ {
		s.gameShards[i] = &gameShard{games: make(map[string]*model.Game)}
		s.profileShards[i] = &profileShard{profiles: make(map[string]*model.Profile)}
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *MemStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemStore) shardIndex(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(s.shardCount))
}

func (s *MemStore) gameShard(gameID string) *gameShard {
	return s.gameShards[s.shardIndex(gameID)]
}

func (s *MemStore) profileShard(userID string) *profileShard {
	return s.profileShards[s.shardIndex(userID)]
}

// FindOpenGames implements Store.FindOpenGames.
func (s *MemStore) FindOpenGames(ctx context.Context, limit int) ([]model.OpenGame, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opFindOpenGames, float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordStoreError(opFindOpenGames)
		return nil, ErrInvalidLimit
	}

	ids := s.open.snapshot()
	out := make([]model.OpenGame, 0, limit)
	stale := false

	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		sh := s.gameShard(id)
		sh.mu.RLock()
		g, ok := sh.games[id]
		if ok && g.Open() {
			out = append(out, model.OpenGame{GameID: g.ID, FirstUserID: g.Players[0].UserID})
		} else {
			stale = true
		}
		sh.mu.RUnlock()
	}

	if stale {
		s.open.compact(func(id string) bool {
			sh := s.gameShard(id)
			sh.mu.RLock()
			g, ok := sh.games[id]
			open := ok && g.Open()
			sh.mu.RUnlock()
			return open
		})
	}

	return out, nil
}

// CreateGame implements Store.CreateGame.
func (s *MemStore) CreateGame(ctx context.Context, userID, prompt string, private bool) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opCreateGame, float64(time.Since(start).Milliseconds()))
	}()

	g := &model.Game{
		ID:        uuid.NewString(),
		Players:   []model.Player{{UserID: userID}},
		Prompt:    prompt,
		IsPrivate: private,
		Type:      model.GameTypeVersus,
		CreatedAt: time.Now().UTC(),
	}

	sh := s.gameShard(g.ID)
	sh.mu.Lock()
	sh.games[g.ID] = g
	sh.mu.Unlock()

	if !private {
		s.open.add(g.ID)
	}

	s.appendProfileGame(userID, g.ID)
	return *g, nil
}

// JoinGame implements Store.JoinGame.
func (s *MemStore) JoinGame(ctx context.Context, gameID, userID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opJoinGame, float64(time.Since(start).Milliseconds()))
	}()

	sh := s.gameShard(gameID)
	sh.mu.Lock()
	g, ok := sh.games[gameID]
	if !ok {
		sh.mu.Unlock()
		metrics.RecordStoreError(opJoinGame)
		return model.Game{}, ErrNotFound
	}
	if g.Seat(userID) >= 0 {
		sh.mu.Unlock()
		metrics.RecordStoreError(opJoinGame)
		return model.Game{}, ErrSelfJoin
	}
	if len(g.Players) != 1 {
		sh.mu.Unlock()
		metrics.RecordStoreError(opJoinGame)
		return model.Game{}, ErrJoinConflict
	}
	g.Players = append(g.Players, model.Player{UserID: userID})
	joined := *g
	sh.mu.Unlock()

	s.appendProfileGame(userID, gameID)
	return joined, nil
}

// GetGame implements Store.GetGame.
func (s *MemStore) GetGame(ctx context.Context, gameID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opGetGame, float64(time.Since(start).Milliseconds()))
	}()

	sh := s.gameShard(gameID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	g, ok := sh.games[gameID]
	if !ok {
		metrics.RecordStoreError(opGetGame)
		return model.Game{}, ErrNotFound
	}
	if !g.Complete() {
		metrics.RecordStoreError(opGetGame)
		return model.Game{}, ErrGameNotComplete
	}
	return *g, nil
}

// GameForUser implements Store.GameForUser.
func (s *MemStore) GameForUser(ctx context.Context, gameID, userID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opGetGame, float64(time.Since(start).Milliseconds()))
	}()

	sh := s.gameShard(gameID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	g, ok := sh.games[gameID]
	if !ok {
		return model.Game{}, ErrNotFound
	}
	if g.Seat(userID) < 0 {
		return model.Game{}, ErrNotMember
	}
	return *g, nil
}

// SubmitDrawing implements Store.SubmitDrawing.
func (s *MemStore) SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opSubmitDrawing, float64(time.Since(start).Milliseconds()))
	}()

	sh := s.gameShard(gameID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	g, ok := sh.games[gameID]
	if !ok {
		metrics.RecordStoreError(opSubmitDrawing)
		return model.Game{}, ErrNotFound
	}
	seat := g.Seat(userID)
	if seat < 0 {
		metrics.RecordStoreError(opSubmitDrawing)
		return model.Game{}, ErrNotMember
	}
	if g.Players[seat].DrawingData != "" {
		metrics.RecordStoreError(opSubmitDrawing)
		return *g, ErrAlreadyDrawn
	}
	g.Players[seat].DrawingData = drawing
	return *g, nil
}

// CastVote implements Store.CastVote.
func (s *MemStore) CastVote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opCastVote, float64(time.Since(start).Milliseconds()))
	}()

	sh := s.gameShard(gameID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	g, ok := sh.games[gameID]
	if !ok {
		metrics.RecordStoreError(opCastVote)
		return model.Game{}, ErrNotFound
	}
	if !g.Complete() {
		metrics.RecordStoreError(opCastVote)
		return model.Game{}, ErrGameNotComplete
	}
	seat := g.Seat(voteForID)
	if seat < 0 {
		metrics.RecordStoreError(opCastVote)
		return model.Game{}, ErrNotMember
	}

	// The profile shard lock nests inside the game shard lock. Profile
	// operations never take a game shard lock, so the order is acyclic.
	voteKey := voterID + "/" + gameID
	ps := s.profileShard(voterID)
	ps.mu.Lock()
	p := s.ensureProfileLocked(ps, voterID, "")
	for _, v := range p.Votes {
		if v == voteKey {
			ps.mu.Unlock()
			metrics.RecordStoreError(opCastVote)
			return *g, ErrAlreadyVoted
		}
	}
	p.Votes = append(p.Votes, voteKey)
	ps.mu.Unlock()

	g.Players[seat].Votes++
	return *g, nil
}

// ListCompletedGames implements Store.ListCompletedGames.
func (s *MemStore) ListCompletedGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opListGames, float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordStoreError(opListGames)
		return nil, ErrInvalidLimit
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var out []model.Game
	for _, sh := range s.gameShards {
		sh.mu.RLock()
		for _, g := range sh.games {
			if !g.Complete() || g.IsPrivate {
				continue
			}
			if _, skip := excluded[g.ID]; skip {
				continue
			}
			if g.Seat(userID) >= 0 {
				continue
			}
			out = append(out, *g)
		}
		sh.mu.RUnlock()
	}

	sortGamesNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EnsureProfile implements Store.EnsureProfile.
func (s *MemStore) EnsureProfile(ctx context.Context, userID, displayName string) (model.Profile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opProfile, float64(time.Since(start).Milliseconds()))
	}()

	ps := s.profileShard(userID)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p := s.ensureProfileLocked(ps, userID, displayName)
	if displayName != "" && p.DisplayName != displayName {
		p.DisplayName = displayName
	}
	return *p, nil
}

// GamesForUser implements Store.GamesForUser.
func (s *MemStore) GamesForUser(ctx context.Context, userID string) ([]model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opProfile, float64(time.Since(start).Milliseconds()))
	}()

	ps := s.profileShard(userID)
	ps.mu.RLock()
	p, ok := ps.profiles[userID]
	var ids []string
	if ok {
		ids = make([]string, len(p.Games))
		for i, pg := range p.Games {
			ids[i] = pg.GameID
		}
	}
	ps.mu.RUnlock()

	out := make([]model.Game, 0, len(ids))
	// Most recent first.
	for i := len(ids) - 1; i >= 0; i-- {
		sh := s.gameShard(ids[i])
		sh.mu.RLock()
		if g, ok := sh.games[ids[i]]; ok {
			out = append(out, *g)
		}
		sh.mu.RUnlock()
	}
	return out, nil
}

// CountGames implements Store.CountGames.
func (s *MemStore) CountGames(ctx context.Context) int {
	total := 0
	for _, sh := range s.gameShards {
		sh.mu.RLock()
		total += len(sh.games)
		sh.mu.RUnlock()
	}
	return total
}

// CountProfiles implements Store.CountProfiles.
func (s *MemStore) CountProfiles(ctx context.Context) int {
	total := 0
	for _, ps := range s.profileShards {
		ps.mu.RLock()
		total += len(ps.profiles)
		ps.mu.RUnlock()
	}
	return total
}

// ensureProfileLocked returns the profile for userID, creating it if absent.
// The caller must hold ps.mu.
func (s *MemStore) ensureProfileLocked(ps *profileShard, userID, displayName string) *model.Profile {
	p, ok := ps.profiles[userID]
	if !ok {
		p = &model.Profile{UserID: userID, DisplayName: displayName}
		ps.profiles[userID] = p
	}
	return p
}

func (s *MemStore) appendProfileGame(userID, gameID string) {
	ps := s.profileShard(userID)
	ps.mu.Lock()
	p := s.ensureProfileLocked(ps, userID, "")
	p.Games = append(p.Games, model.ProfileGame{GameID: gameID, Active: true})
	ps.mu.Unlock()
}

// startMetricsUpdater starts a background goroutine that updates store metrics.
func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

// updateMetrics refreshes the document count gauges.
func (s *MemStore) updateMetrics(ctx context.Context) {
	metrics.UpdateTotalGames(s.CountGames(ctx))
	metrics.UpdateTotalProfiles(s.CountProfiles(ctx))
}
