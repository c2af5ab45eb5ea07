// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artloop/sketchduel/internal/adapters/repository"
	"github.com/artloop/sketchduel/internal/domain/dedupe"
	"github.com/artloop/sketchduel/internal/domain/model"
)

// userIDHeader carries the caller's identity, set by the gateway in front
// of this service.
const userIDHeader = "X-User-ID"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Play blocks until matchmaking seats the requester in a game.
	Play(ctx context.Context, requesterID string) (model.Game, error)

	// Game lifecycle operations.
	NewGame(ctx context.Context, userID string, private bool) (model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) (model.Game, error)
	SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error)
	Vote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error)

	// Read operations.
	GetGame(ctx context.Context, gameID, userID string) (model.Game, error)
	ListGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error)
	Profile(ctx context.Context, userID, displayName string) (model.Profile, error)
	GamesForUser(ctx context.Context, userID string) ([]model.Game, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	playHandler    *PlayHandler
	gamesHandler   *GamesHandler
	drawingHandler *DrawingHandler
	voteHandler    *VoteHandler
	browseHandler  *BrowseHandler
	profileHandler *ProfileHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		playHandler:    NewPlayHandler(deps),
		gamesHandler:   NewGamesHandler(deps),
		drawingHandler: NewDrawingHandler(deps),
		voteHandler:    NewVoteHandler(deps),
		browseHandler:  NewBrowseHandler(deps, maxListLimit),
		profileHandler: NewProfileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/play", MetricsMiddleware(s.playHandler.HandlePlay, "play"))
	mux.HandleFunc("/games/new", MetricsMiddleware(s.gamesHandler.HandleNewGame, "games_new"))
	mux.HandleFunc("/games/join", MetricsMiddleware(s.gamesHandler.HandleJoinGame, "games_join"))
	mux.HandleFunc("/games/drawing", MetricsMiddleware(s.drawingHandler.HandleSubmitDrawing, "games_drawing"))
	mux.HandleFunc("/games/vote", MetricsMiddleware(s.voteHandler.HandleVote, "games_vote"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGetGame, "games_get"))
	mux.HandleFunc("/games", MetricsMiddleware(s.browseHandler.HandleListGames, "games_list"))
	mux.HandleFunc("/profile/me", MetricsMiddleware(s.profileHandler.HandleMe, "profile_me"))
	mux.HandleFunc("/profile/games", MetricsMiddleware(s.profileHandler.HandleGames, "profile_games"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// requireUser extracts the authenticated user id from the request.
func requireUser(r *http.Request) (string, error) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		return "", ErrUnauthorized
	}
	return id, nil
}

// writeStoreError translates store sentinels into HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrGameNotComplete):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrJoinConflict),
		errors.Is(err, repository.ErrSelfJoin),
		errors.Is(err, repository.ErrAlreadyDrawn),
		errors.Is(err, repository.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrNotMember):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
