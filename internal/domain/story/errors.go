package story

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed means the turn's narrative could not be produced
	ErrGenerationFailed = errors.New("story generation failed")

	// ErrMalformedOutput is a narrative response that did not match the turn shape.
	ErrMalformedOutput = fmt.Errorf("%w: malformed output", ErrGenerationFailed)

	// ErrMediaUnavailable covers image and narration failures; they never end a turn
	ErrMediaUnavailable = errors.New("media unavailable")

	ErrInputRejected    = errors.New("input rejected")
	ErrMissingSelection = errors.New("character and setting must be selected first")
)
