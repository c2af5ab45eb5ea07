package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/artloop/sketchduel/internal/domain/model"
	"github.com/artloop/sketchduel/pkg/metrics"
)

// Redis-backed Store implementation.
//
// Key layout:
//
//	kv  : sd:game:{id}      -> JSON game document
//	kv  : sd:profile:{id}   -> JSON profile document
//	list: sd:games:open     -> game ids in creation order (open pool)
//	set : sd:games          -> all game ids
//	set : sd:profiles       -> all profile ids
//
// Multi-step writes run under optimistic WATCH transactions so a concurrent
// join of the same game fails with ErrJoinConflict instead of seating a
// third player.

const (
	openListKey    = "sd:games:open"
	gamesSetKey    = "sd:games"
	profilesSetKey = "sd:profiles"

	// joinRetries bounds WATCH retries on a contended game before the join
	// is reported as a conflict.
	joinRetries = 3

	// createRetries bounds WATCH retries on a contended profile ledger.
	// Contention here is always transient (same user creating games
	// concurrently), so the bound is generous.
	createRetries = 100
)

func gameKey(id string) string    { return fmt.Sprintf("sd:game:%s", id) }
func profileKey(id string) string { return fmt.Sprintf("sd:profile:%s", id) }

type RedisStore struct {
	rdb *redis.Client

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*RedisStore)(nil)

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisMetricsUpdateInterval sets the interval for background metrics updates.
func WithRedisMetricsUpdateInterval(interval time.Duration) RedisOption {
	return func(s *RedisStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// NewRedisStore constructs a store backed by the given Redis client.
func NewRedisStore(ctx context.Context, rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:                   rdb,
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close stops the background metrics goroutine. The Redis client is owned by
// the caller and is not closed here.
func (s *RedisStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *RedisStore) getGame(ctx context.Context, c redis.Cmdable, id string) (model.Game, error) {
	raw, err := c.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Game{}, ErrNotFound
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("get game %s: %w", id, err)
	}
	var g model.Game
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return model.Game{}, fmt.Errorf("decode game %s: %w", id, err)
	}
	return g, nil
}

func (s *RedisStore) getProfile(ctx context.Context, c redis.Cmdable, id string) (model.Profile, bool, error) {
	raw, err := c.Get(ctx, profileKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Profile{UserID: id}, false, nil
	}
	if err != nil {
		return model.Profile{}, false, fmt.Errorf("get profile %s: %w", id, err)
	}
	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Profile{}, false, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return p, true, nil
}

func setJSON(ctx context.Context, c redis.Cmdable, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, 0).Err()
}

// FindOpenGames implements Store.FindOpenGames.
func (s *RedisStore) FindOpenGames(ctx context.Context, limit int) ([]model.OpenGame, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opFindOpenGames, float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordStoreError(opFindOpenGames)
		return nil, ErrInvalidLimit
	}

	// Over-read the open list so stale entries do not shrink the pool,
	// then drop them from the list as they are discovered.
	ids, err := s.rdb.LRange(ctx, openListKey, 0, int64(limit*2)).Result()
	if err != nil {
		metrics.RecordStoreError(opFindOpenGames)
		return nil, fmt.Errorf("range open games: %w", err)
	}

	out := make([]model.OpenGame, 0, limit)
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		g, err := s.getGame(ctx, s.rdb, id)
		if errors.Is(err, ErrNotFound) || (err == nil && !g.Open()) {
			_ = s.rdb.LRem(ctx, openListKey, 1, id).Err()
			continue
		}
		if err != nil {
			metrics.RecordStoreError(opFindOpenGames)
			return nil, err
		}
		out = append(out, model.OpenGame{GameID: g.ID, FirstUserID: g.Players[0].UserID})
	}
	return out, nil
}

// CreateGame implements Store.CreateGame.
func (s *RedisStore) CreateGame(ctx context.Context, userID, prompt string, private bool) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opCreateGame, float64(time.Since(start).Milliseconds()))
	}()

	g := model.Game{
		ID:        uuid.NewString(),
		Players:   []model.Player{{UserID: userID}},
		Prompt:    prompt,
		IsPrivate: private,
		Type:      model.GameTypeVersus,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(g)
	if err != nil {
		metrics.RecordStoreError(opCreateGame)
		return model.Game{}, fmt.Errorf("encode game: %w", err)
	}

	// The profile append is a read-modify-write; concurrent creates for the
	// same user must not drop each other's ledger entries.
	txn := func(tx *redis.Tx) error {
		p, _, err := s.getProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		p.Games = append(p.Games, model.ProfileGame{GameID: g.ID, Active: true})

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(g.ID), data, 0)
			pipe.SAdd(ctx, gamesSetKey, g.ID)
			if err := setJSON(ctx, pipe, profileKey(userID), p); err != nil {
				return err
			}
			pipe.SAdd(ctx, profilesSetKey, userID)
			if !private {
				pipe.RPush(ctx, openListKey, g.ID)
			}
			return nil
		})
		return err
	}

	err = s.rdb.Watch(ctx, txn, profileKey(userID))
	for i := 1; i < createRetries && errors.Is(err, redis.TxFailedErr); i++ {
		err = s.rdb.Watch(ctx, txn, profileKey(userID))
	}
	if err != nil {
		metrics.RecordStoreError(opCreateGame)
		return model.Game{}, fmt.Errorf("create game: %w", err)
	}
	return g, nil
}

// JoinGame implements Store.JoinGame.
func (s *RedisStore) JoinGame(ctx context.Context, gameID, userID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opJoinGame, float64(time.Since(start).Milliseconds()))
	}()

	var joined model.Game

	txn := func(tx *redis.Tx) error {
		g, err := s.getGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if g.Seat(userID) >= 0 {
			return ErrSelfJoin
		}
		if len(g.Players) != 1 {
			return ErrJoinConflict
		}
		g.Players = append(g.Players, model.Player{UserID: userID})

		p, _, err := s.getProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		p.Games = append(p.Games, model.ProfileGame{GameID: gameID, Active: true})

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := setJSON(ctx, pipe, gameKey(gameID), g); err != nil {
				return err
			}
			if err := setJSON(ctx, pipe, profileKey(userID), p); err != nil {
				return err
			}
			pipe.SAdd(ctx, profilesSetKey, userID)
			pipe.LRem(ctx, openListKey, 1, gameID)
			return nil
		})
		if err != nil {
			return err
		}
		joined = g
		return nil
	}

	var err error
	for i := 0; i < joinRetries; i++ {
		err = s.rdb.Watch(ctx, txn, gameKey(gameID), profileKey(userID))
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, redis.TxFailedErr) {
		// The game changed under us every attempt; treat it as claimed.
		err = ErrJoinConflict
	}
	if err != nil {
		metrics.RecordStoreError(opJoinGame)
		return model.Game{}, err
	}
	return joined, nil
}

// GetGame implements Store.GetGame.
func (s *RedisStore) GetGame(ctx context.Context, gameID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opGetGame, float64(time.Since(start).Milliseconds()))
	}()

	g, err := s.getGame(ctx, s.rdb, gameID)
	if err != nil {
		metrics.RecordStoreError(opGetGame)
		return model.Game{}, err
	}
	if !g.Complete() {
		metrics.RecordStoreError(opGetGame)
		return model.Game{}, ErrGameNotComplete
	}
	return g, nil
}

// GameForUser implements Store.GameForUser.
func (s *RedisStore) GameForUser(ctx context.Context, gameID, userID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opGetGame, float64(time.Since(start).Milliseconds()))
	}()

	g, err := s.getGame(ctx, s.rdb, gameID)
	if err != nil {
		return model.Game{}, err
	}
	if g.Seat(userID) < 0 {
		return model.Game{}, ErrNotMember
	}
	return g, nil
}

// SubmitDrawing implements Store.SubmitDrawing.
func (s *RedisStore) SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opSubmitDrawing, float64(time.Since(start).Milliseconds()))
	}()

	var updated model.Game

	txn := func(tx *redis.Tx) error {
		g, err := s.getGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		seat := g.Seat(userID)
		if seat < 0 {
			return ErrNotMember
		}
		if g.Players[seat].DrawingData != "" {
			updated = g
			return ErrAlreadyDrawn
		}
		g.Players[seat].DrawingData = drawing

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return setJSON(ctx, pipe, gameKey(gameID), g)
		})
		if err != nil {
			return err
		}
		updated = g
		return nil
	}

	err := s.rdb.Watch(ctx, txn, gameKey(gameID))
	if err != nil {
		metrics.RecordStoreError(opSubmitDrawing)
		return updated, err
	}
	return updated, nil
}

// CastVote implements Store.CastVote.
func (s *RedisStore) CastVote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opCastVote, float64(time.Since(start).Milliseconds()))
	}()

	var updated model.Game
	voteKey := voterID + "/" + gameID

	txn := func(tx *redis.Tx) error {
		g, err := s.getGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if !g.Complete() {
			return ErrGameNotComplete
		}
		seat := g.Seat(voteForID)
		if seat < 0 {
			return ErrNotMember
		}

		p, _, err := s.getProfile(ctx, tx, voterID)
		if err != nil {
			return err
		}
		for _, v := range p.Votes {
			if v == voteKey {
				updated = g
				return ErrAlreadyVoted
			}
		}
		p.Votes = append(p.Votes, voteKey)
		g.Players[seat].Votes++

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := setJSON(ctx, pipe, gameKey(gameID), g); err != nil {
				return err
			}
			if err := setJSON(ctx, pipe, profileKey(voterID), p); err != nil {
				return err
			}
			pipe.SAdd(ctx, profilesSetKey, voterID)
			return nil
		})
		if err != nil {
			return err
		}
		updated = g
		return nil
	}

	err := s.rdb.Watch(ctx, txn, gameKey(gameID), profileKey(voterID))
	if err != nil {
		metrics.RecordStoreError(opCastVote)
		return updated, err
	}
	return updated, nil
}

// ListCompletedGames implements Store.ListCompletedGames.
func (s *RedisStore) ListCompletedGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error) {
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

	ids, err := s.rdb.SMembers(ctx, gamesSetKey).Result()
	if err != nil {
		metrics.RecordStoreError(opListGames)
		return nil, fmt.Errorf("list games: %w", err)
	}

	var out []model.Game
	for _, id := range ids {
		if _, skip := excluded[id]; skip {
			continue
		}
		g, err := s.getGame(ctx, s.rdb, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			metrics.RecordStoreError(opListGames)
			return nil, err
		}
		if !g.Complete() || g.IsPrivate || g.Seat(userID) >= 0 {
			continue
		}
		out = append(out, g)
	}

	sortGamesNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EnsureProfile implements Store.EnsureProfile.
func (s *RedisStore) EnsureProfile(ctx context.Context, userID, displayName string) (model.Profile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opProfile, float64(time.Since(start).Milliseconds()))
	}()

	var out model.Profile

	txn := func(tx *redis.Tx) error {
		p, existed, err := s.getProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		changed := !existed
		if displayName != "" && p.DisplayName != displayName {
			p.DisplayName = displayName
			changed = true
		}
		if changed {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if err := setJSON(ctx, pipe, profileKey(userID), p); err != nil {
					return err
				}
				pipe.SAdd(ctx, profilesSetKey, userID)
				return nil
			})
			if err != nil {
				return err
			}
		}
		out = p
		return nil
	}

	if err := s.rdb.Watch(ctx, txn, profileKey(userID)); err != nil {
		metrics.RecordStoreError(opProfile)
		return model.Profile{}, err
	}
	return out, nil
}

// GamesForUser implements Store.GamesForUser.
func (s *RedisStore) GamesForUser(ctx context.Context, userID string) ([]model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOpLatency(opProfile, float64(time.Since(start).Milliseconds()))
	}()

	p, _, err := s.getProfile(ctx, s.rdb, userID)
	if err != nil {
		metrics.RecordStoreError(opProfile)
		return nil, err
	}

	out := make([]model.Game, 0, len(p.Games))
	for i := len(p.Games) - 1; i >= 0; i-- {
		g, err := s.getGame(ctx, s.rdb, p.Games[i].GameID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			metrics.RecordStoreError(opProfile)
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// CountGames implements Store.CountGames.
func (s *RedisStore) CountGames(ctx context.Context) int {
	n, err := s.rdb.SCard(ctx, gamesSetKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// CountProfiles implements Store.CountProfiles.
func (s *RedisStore) CountProfiles(ctx context.Context) int {
	n, err := s.rdb.SCard(ctx, profilesSetKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (s *RedisStore) startMetricsUpdater(ctx context.Context) {
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
				metrics.UpdateTotalGames(s.CountGames(ctx))
				metrics.UpdateTotalProfiles(s.CountProfiles(ctx))
			}
		}
	}()
}
