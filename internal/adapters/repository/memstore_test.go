package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemStore_CreateAndFindOpenGames(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	// Empty store
	games, err := store.FindOpenGames(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected 0 open games, got %d", len(games))
	}

	g, err := store.CreateGame(ctx, "alice", "a cat on a bike", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ID == "" {
		t.Error("expected game id to be assigned")
	}
	if len(g.Players) != 1 || g.Players[0].UserID != "alice" {
		t.Errorf("expected alice seated alone, got %+v", g.Players)
	}
	if g.Prompt != "a cat on a bike" {
		t.Errorf("unexpected prompt %q", g.Prompt)
	}

	games, err = store.FindOpenGames(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 open game, got %d", len(games))
	}
	if games[0].GameID != g.ID || games[0].FirstUserID != "alice" {
		t.Errorf("unexpected open game %+v", games[0])
	}

	if count := store.CountGames(ctx); count != 1 {
		t.Errorf("expected 1 game, got %d", count)
	}
	if count := store.CountProfiles(ctx); count != 1 {
		t.Errorf("expected 1 profile, got %d", count)
	}
}

func TestMemStore_PrivateGamesHiddenFromPool(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	if _, err := store.CreateGame(ctx, "alice", "prompt", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	games, err := store.FindOpenGames(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("private game leaked into open pool: %+v", games)
	}
}

func TestMemStore_FindOpenGamesOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	var ids []string
	for i := 0; i < 5; i++ {
		g, err := store.CreateGame(ctx, fmt.Sprintf("user-%d", i), "prompt", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, g.ID)
	}

	games, err := store.FindOpenGames(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("expected 3 open games, got %d", len(games))
	}
	for i, og := range games {
		if og.GameID != ids[i] {
			t.Errorf("expected creation order at %d: want %s, got %s", i, ids[i], og.GameID)
		}
	}

	if _, err := store.FindOpenGames(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestMemStore_JoinGame(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined, err := store.JoinGame(ctx, g.ID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(joined.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(joined.Players))
	}
	if joined.Players[1].UserID != "bob" {
		t.Errorf("expected bob in second seat, got %s", joined.Players[1].UserID)
	}

	// Full game rejects a third player
	if _, err := store.JoinGame(ctx, g.ID, "carol"); !errors.Is(err, ErrJoinConflict) {
		t.Errorf("expected ErrJoinConflict, got %v", err)
	}

	// Unknown game
	if _, err := store.JoinGame(ctx, "missing", "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Joined game leaves the open pool
	games, err := store.FindOpenGames(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("joined game still open: %+v", games)
	}
}

func TestMemStore_JoinGameSelf(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.JoinGame(ctx, g.ID, "alice"); !errors.Is(err, ErrSelfJoin) {
		t.Errorf("expected ErrSelfJoin, got %v", err)
	}
}

func TestMemStore_JoinGameConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "creator", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const contenders = 20
	var wg sync.WaitGroup
	winners := make(chan string, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", id)
			if _, err := store.JoinGame(ctx, g.ID, user); err == nil {
				winners <- user
			}
		}(i)
	}
	wg.Wait()
	close(winners)

	var won []string
	for w := range winners {
		won = append(won, w)
	}
	if len(won) != 1 {
		t.Errorf("expected exactly one winner, got %d: %v", len(won), won)
	}
}

func TestMemStore_GetGame(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One-player game is not readable yet
	if _, err := store.GetGame(ctx, g.ID); !errors.Is(err, ErrGameNotComplete) {
		t.Errorf("expected ErrGameNotComplete, got %v", err)
	}

	if _, err := store.JoinGame(ctx, g.ID, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(got.Players))
	}

	if _, err := store.GetGame(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_GameForUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A seated player can read the game before it completes
	got, err := store.GameForUser(ctx, g.ID, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Players) != 1 {
		t.Errorf("expected 1 player, got %d", len(got.Players))
	}

	if _, err := store.GameForUser(ctx, g.ID, "stranger"); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
	if _, err := store.GameForUser(ctx, "missing", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_SubmitDrawing(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := store.SubmitDrawing(ctx, g.ID, "alice", "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Players[0].DrawingData == "" {
		t.Error("expected drawing to be stored")
	}

	// Second submission for the same seat is rejected
	if _, err := store.SubmitDrawing(ctx, g.ID, "alice", "data:other"); !errors.Is(err, ErrAlreadyDrawn) {
		t.Errorf("expected ErrAlreadyDrawn, got %v", err)
	}

	// Non-member cannot draw
	if _, err := store.SubmitDrawing(ctx, g.ID, "mallory", "data:x"); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestMemStore_CastVote(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	g, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Incomplete game cannot be voted on
	if _, err := store.CastVote(ctx, g.ID, "carol", "alice"); !errors.Is(err, ErrGameNotComplete) {
		t.Errorf("expected ErrGameNotComplete, got %v", err)
	}

	if _, err := store.JoinGame(ctx, g.ID, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := store.CastVote(ctx, g.ID, "carol", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Players[0].Votes != 1 {
		t.Errorf("expected 1 vote for alice, got %d", updated.Players[0].Votes)
	}

	// Same voter cannot vote twice on the same game
	if _, err := store.CastVote(ctx, g.ID, "carol", "bob"); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted, got %v", err)
	}

	// Vote target must be seated
	if _, err := store.CastVote(ctx, g.ID, "dave", "nobody"); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestMemStore_ListCompletedGames(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	complete := func(creator, joiner string, private bool) string {
		g, err := store.CreateGame(ctx, creator, "prompt", private)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.JoinGame(ctx, g.ID, joiner); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return g.ID
	}

	publicID := complete("a1", "a2", false)
	complete("b1", "b2", true)          // private, never listed
	mineID := complete("viewer", "a3", false)

	// Open game is not listed
	if _, err := store.CreateGame(ctx, "c1", "prompt", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	games, err := store.ListCompletedGames(ctx, "viewer", nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 || games[0].ID != publicID {
		t.Fatalf("expected only %s listed, got %+v", publicID, games)
	}

	// Explicit exclusion
	games, err = store.ListCompletedGames(ctx, "someone-else", []string{publicID}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 || games[0].ID != mineID {
		t.Fatalf("expected only %s listed, got %+v", mineID, games)
	}
}

func TestMemStore_Profiles(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer store.Close()

	p, err := store.EnsureProfile(ctx, "alice", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UserID != "alice" || p.DisplayName != "Alice" {
		t.Errorf("unexpected profile %+v", p)
	}

	g1, err := store.CreateGame(ctx, "alice", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g2, err := store.CreateGame(ctx, "bob", "prompt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.JoinGame(ctx, g2.ID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	games, err := store.GamesForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	// Most recent first
	if games[0].ID != g2.ID || games[1].ID != g1.ID {
		t.Errorf("expected order [%s %s], got [%s %s]", g2.ID, g1.ID, games[0].ID, games[1].ID)
	}
}

func TestMemStore_ShardOption(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithShardCount(4))
	defer store.Close()

	for i := 0; i < 50; i++ {
		if _, err := store.CreateGame(ctx, fmt.Sprintf("user-%d", i), "prompt", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if count := store.CountGames(ctx); count != 50 {
		t.Errorf("expected 50 games, got %d", count)
	}

	games, err := store.FindOpenGames(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 50 {
		t.Errorf("expected 50 open games, got %d", len(games))
	}
}
