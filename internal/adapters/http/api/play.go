// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// PlayDependencies defines the interface for matchmaking requests.
type PlayDependencies interface {
	Play(ctx context.Context, requesterID string) (model.Game, error)
}

// PlayHandler handles matchmaking requests.
type PlayHandler struct {
	deps PlayDependencies
}

// NewPlayHandler creates a new play handler.
func NewPlayHandler(deps PlayDependencies) *PlayHandler {
	return &PlayHandler{deps: deps}
}

// HandlePlay handles POST /play requests. The call blocks until the
// matchmaking engine resolves the request, so the response is always a
// concrete game the caller is now seated in.
func (h *PlayHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.play"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}

	game, err := h.deps.Play(r.Context(), userID)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, game)
}
