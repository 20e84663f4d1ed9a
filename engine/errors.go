package engine

import "errors"

var (
	ErrNotAwaitingInput = errors.New("planchette is not awaiting input")
	ErrMalformedQueue   = errors.New("malformed animation queue")
	ErrTickFault        = errors.New("animation tick failed")
	ErrClosed           = errors.New("scheduler closed")
)
