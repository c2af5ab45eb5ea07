package matchstorm

import "time"

// Config holds configuration for the matchmaking storm test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumPlayers int           // Number of players requesting a match
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	VoteRounds int           // Number of completed games to vote on afterwards
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Player mirrors one seated participant in a game response.
type Player struct {
	UserID      string `json:"user_id"`
	DrawingData string `json:"drawing_data,omitempty"`
	Votes       int    `json:"votes"`
}

// Game mirrors the duel document returned by the service.
type Game struct {
	ID        string   `json:"id"`
	Players   []Player `json:"players"`
	Prompt    string   `json:"prompt"`
	IsPrivate bool     `json:"is_private"`
	Type      string   `json:"type"`
}

// Assignment records which game a requester ended up in.
type Assignment struct {
	UserID string
	Game   Game
}

// VoteAck mirrors the response from vote submission.
type VoteAck struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	PlaysRequested   int
	PlaysMatched     int
	PlaysFailed      int
	GamesCreated     int
	GamesPaired      int
	DrawingsAccepted int
	VotesCounted     int
	VotesDuplicate   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
