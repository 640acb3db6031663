package editor

import "errors"

// Edits the session refuses.
var (
	ErrMaxBanks      = errors.New("max banks reached")
	ErrLastBank      = errors.New("need at least 1 bank")
	ErrMaxActions    = errors.New("max actions reached")
	ErrUnknownPort   = errors.New("unknown expfs port")
	ErrNotExpression = errors.New("port is not in exp mode")
)
