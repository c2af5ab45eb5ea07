package matchmaker

import "errors"

// Sentinel kinds for matchmaking errors.
var (
	ErrInvalidRequester = errors.New("invalid requester id")
	ErrEngineClosed     = errors.New("matchmaking engine closed")
)
