// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// ProfileDependencies defines the interface for profile operations.
type ProfileDependencies interface {
	Profile(ctx context.Context, userID, displayName string) (model.Profile, error)
	GamesForUser(ctx context.Context, userID string) ([]model.Game, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleMe handles GET /profile/me requests. The profile is created on
// first sight, so this never 404s for an authenticated caller.
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	const op = "api.profile_me"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}

	profile, err := h.deps.Profile(r.Context(), userID, r.Header.Get("X-Display-Name"))
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGames handles GET /profile/games requests.
func (h *ProfileHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.profile_games"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}

	games, err := h.deps.GamesForUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	if games == nil {
		games = []model.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}
