// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/artloop/sketchduel/internal/domain/model"
)

// DrawingDependencies defines the interface for drawing submission.
type DrawingDependencies interface {
	SubmitDrawing(ctx context.Context, gameID, userID, drawing string) (model.Game, error)
}

// DrawingHandler handles drawing submissions.
type DrawingHandler struct {
	deps DrawingDependencies
}

// NewDrawingHandler creates a new drawing handler.
func NewDrawingHandler(deps DrawingDependencies) *DrawingHandler {
	return &DrawingHandler{deps: deps}
}

// drawingRequest mirrors the OpenAPI schema for POST /games/drawing.
type drawingRequest struct {
	GameID      string `json:"game_id"`
	DrawingData string `json:"drawing_data"`
}

func (d drawingRequest) validate() error {
	const op = "api.submit_drawing"
	switch {
	case strings.TrimSpace(d.GameID) == "":
		return NewKind(op, ErrBadRequest)
	case d.DrawingData == "":
		return NewKind(op, ErrBadRequest)
	}
	return nil
}

// HandleSubmitDrawing handles POST /games/drawing requests. Each seat may
// submit exactly once; the first submission wins.
func (h *DrawingHandler) HandleSubmitDrawing(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_drawing"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	var req drawingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	game, err := h.deps.SubmitDrawing(r.Context(), req.GameID, userID, req.DrawingData)
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, game)
}
