// Package model contains domain models passed between layers.
package model

import "time"

// GameType identifies the duel format. Only head-to-head duels exist today.
const GameTypeVersus = "vs"

// Player is one seated participant in a game.
type Player struct {
	UserID      string `json:"user_id"`
	DrawingData string `json:"drawing_data,omitempty"` // empty until submitted
	Votes       int    `json:"votes"`
}

// Game represents one duel document as stored by the game store.
// A game is "open" while it has exactly one player and is not private;
// it is "complete" once a second player has been seated.
type Game struct {
	ID        string    `json:"id"`
	Players   []Player  `json:"players"`
	Prompt    string    `json:"prompt"`
	IsPrivate bool      `json:"is_private"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the game can still seat a second player.
func (g *Game) Open() bool {
	return len(g.Players) == 1 && !g.IsPrivate
}

// Complete reports whether both seats are taken.
func (g *Game) Complete() bool {
	return len(g.Players) == 2
}

// Seat returns the index of userID among the players, or -1.
func (g *Game) Seat(userID string) int {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// OpenGame is a batch-local view of a joinable game: the game id plus the
// identity of the already-seated player. It lives only for the duration of
// one matchmaking batch.
type OpenGame struct {
	GameID      string
	FirstUserID string
}

// ProfileGame is one entry in a profile's game list.
type ProfileGame struct {
	GameID string `json:"game_id"`
	Active bool   `json:"active"`
}

// Profile is a player's persistent account document.
type Profile struct {
	UserID      string        `json:"user_id"`
	DisplayName string        `json:"display_name,omitempty"`
	Games       []ProfileGame `json:"games"`
	Votes       []string      `json:"votes"` // game ids already voted on
	Coins       int           `json:"coins"`
	Gems        int           `json:"gems"`
}
