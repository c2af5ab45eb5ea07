// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/artloop/sketchduel/internal/domain/dedupe"
	"github.com/artloop/sketchduel/internal/domain/model"
)

// VoteDependencies defines the interface for vote processing dependencies.
type VoteDependencies interface {
	dedupe.Deduper
	Vote(ctx context.Context, gameID, voterID, voteForID string) (model.Game, error)
}

// VoteHandler handles vote requests.
type VoteHandler struct {
	deps VoteDependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps VoteDependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

// voteRequest mirrors the OpenAPI schema for POST /games/vote.
type voteRequest struct {
	GameID    string `json:"game_id"`
	VoteForID string `json:"vote_for_id"`
}

func (v voteRequest) validate() error {
	const op = "api.vote"
	switch {
	case strings.TrimSpace(v.GameID) == "":
		return NewKind(op, ErrBadRequest)
	case strings.TrimSpace(v.VoteForID) == "":
		return NewKind(op, ErrBadRequest)
	}
	return nil
}

// voteResponse acknowledges a cast vote.
type voteResponse struct {
	Status    string     `json:"status"`
	Duplicate bool       `json:"duplicate"`
	Game      model.Game `json:"game"`
}

// HandleVote handles POST /games/vote requests.
func (h *VoteHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	voterID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Idempotency check - mark as seen first
	voteKey := voterID + "/" + req.GameID
	if h.deps.SeenAndRecord(r.Context(), voteKey) {
		writeJSON(w, http.StatusOK, voteResponse{Status: "duplicate", Duplicate: true})
		return
	}

	game, err := h.deps.Vote(r.Context(), req.GameID, voterID, req.VoteForID)
	if err != nil {
		// Rollback the "seen" status since the vote did not land
		h.deps.Unrecord(r.Context(), voteKey)
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, voteResponse{Status: "counted", Game: game})
}
