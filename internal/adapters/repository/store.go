// Package repository defines the game/profile document store and errors.
//
// The store is the durable owner of Game and Profile documents. During a
// matchmaking batch the engine works against a point-in-time snapshot of the
// open games; the store itself never holds locks across calls.
package repository

import (
	"context"
	"sort"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// Store operation names used as metric labels.
const (
	opFindOpenGames = "find_open_games"
	opCreateGame    = "create_game"
	opJoinGame      = "join_game"
	opGetGame       = "get_game"
	opSubmitDrawing = "submit_drawing"
	opCastVote      = "cast_vote"
	opListGames     = "list_games"
	opProfile       = "profile"
)

// Store provides read/write access to game and profile documents.
type Store interface {
	// FindOpenGames returns up to limit games with exactly one seated
	// player that are not private, in stable store order. The result is a
	// best-effort snapshot; no locks are held on the returned games.
	FindOpenGames(ctx context.Context, limit int) ([]model.OpenGame, error)

	// CreateGame inserts a new game seeded with userID and the given
	// prompt, and records it on the creator's profile.
	CreateGame(ctx context.Context, userID, prompt string, private bool) (model.Game, error)

	// JoinGame seats userID as the second player of gameID and records
	// the game on the joiner's profile. Returns ErrJoinConflict if the
	// game no longer has exactly one player, ErrSelfJoin if userID is
	// already seated, and ErrNotFound for an unknown game.
	JoinGame(ctx context.Context, gameID, userID string) (model.Game, error)

	// GetGame returns a completed game. Returns ErrNotFound for unknown
	// ids and ErrGameNotComplete while the second seat is empty.
	GetGame(ctx context.Context, gameID string) (model.Game, error)

	// GameForUser returns the game regardless of completion, provided
	// userID is seated in it. Returns ErrNotMember otherwise.
	GameForUser(ctx context.Context, gameID, userID string) (model.Game, error)

	// SubmitDrawing stores userID's drawing for gameID. A second
	// submission for the same seat fails with ErrAlreadyDrawn.
	SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error)

	// CastVote registers voterID's vote for member voteForID of a
	// completed game. One vote per voter per game; repeats fail with
	// ErrAlreadyVoted.
	CastVote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error)

	// ListCompletedGames returns public completed games for browsing,
	// skipping games userID played in and any explicitly excluded ids.
	ListCompletedGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error)

	// EnsureProfile returns the profile for userID, creating an empty one
	// on first sight.
	EnsureProfile(ctx context.Context, userID, displayName string) (model.Profile, error)

	// GamesForUser returns the games listed on userID's profile, most
	// recent first.
	GamesForUser(ctx context.Context, userID string) ([]model.Game, error)

	// CountGames returns the number of game documents tracked.
	CountGames(ctx context.Context) int

	// CountProfiles returns the number of profiles tracked.
	CountProfiles(ctx context.Context) int
}

// sortGamesNewestFirst orders games by creation time descending, with id
// ascending as the tie-breaker, so listings are stable across stores.
func sortGamesNewestFirst(games []model.Game) {
	sort.Slice(games, func(i, j int) bool {
		if !games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		}
		return games[i].ID < games[j].ID
	})
}
