package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("game not found")
	ErrJoinConflict    = errors.New("game no longer open")
	ErrSelfJoin        = errors.New("cannot join own game")
	ErrNotMember       = errors.New("user not seated in game")
	ErrAlreadyDrawn    = errors.New("drawing already submitted")
	ErrAlreadyVoted    = errors.New("vote already cast")
	ErrGameNotComplete = errors.New("game not complete")
	ErrInvalidLimit    = errors.New("invalid list limit")
)
