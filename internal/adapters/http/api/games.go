// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// GameDependencies defines the interface for game lifecycle operations.
type GameDependencies interface {
	NewGame(ctx context.Context, userID string, private bool) (model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) (model.Game, error)
	GetGame(ctx context.Context, gameID, userID string) (model.Game, error)
}

// GamesHandler handles game creation, joining and reads.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// newGameRequest mirrors the OpenAPI schema for POST /games/new.
type newGameRequest struct {
	IsPrivate bool `json:"is_private"`
}

// joinGameRequest mirrors the OpenAPI schema for POST /games/join.
type joinGameRequest struct {
	GameID string `json:"game_id"`
}

func (j joinGameRequest) validate() error {
	if strings.TrimSpace(j.GameID) == "" {
		return NewKind("api.join_game", ErrBadRequest)
	}
	return nil
}

// HandleNewGame handles POST /games/new requests. Private games are
// reachable only by id and never enter the matchmaking pool.
func (h *GamesHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.new_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	var req newGameRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	game, err := h.deps.NewGame(r.Context(), userID, req.IsPrivate)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// HandleJoinGame handles POST /games/join requests.
func (h *GamesHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.join_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	game, err := h.deps.JoinGame(r.Context(), req.GameID, userID)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// HandleGetGame handles GET /games/{game_id} requests. Games are readable
// by anyone once both seats are taken; a seated player may also read their
// own game while it is still waiting for an opponent.
func (h *GamesHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /games/
	gameID := strings.TrimPrefix(r.URL.Path, "/games/")
	if gameID == "" || strings.Contains(gameID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	game, err := h.deps.GetGame(r.Context(), gameID, r.Header.Get(userIDHeader))
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, game)
}
