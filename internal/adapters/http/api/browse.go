// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// defaultListLimit applies when the caller does not pass limit.
const defaultListLimit = 20

// BrowseDependencies defines the interface for browsing completed games.
type BrowseDependencies interface {
	ListGames(ctx context.Context, userID string, exclude []string, limit int) ([]model.Game, error)
}

// BrowseHandler handles completed-game listing requests.
type BrowseHandler struct {
	deps     BrowseDependencies
	maxLimit int
}

// NewBrowseHandler creates a new browse handler.
func NewBrowseHandler(deps BrowseDependencies, maxLimit int) *BrowseHandler {
	return &BrowseHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleListGames handles GET /games?limit=N&exclude=id1,id2 requests.
// Games the caller played in are always excluded so the feed only shows
// other people's duels.
func (h *BrowseHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_games"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	var exclude []string
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				exclude = append(exclude, id)
			}
		}
	}

	games, err := h.deps.ListGames(r.Context(), userID, exclude, limit)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, games)
}
