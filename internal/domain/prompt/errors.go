package prompt

import "errors"

// Sentinel kinds for prompt errors.
var (
	ErrNoPrompts   = errors.New("no prompts available")
	ErrEmptyPrompt = errors.New("empty prompt")
)
