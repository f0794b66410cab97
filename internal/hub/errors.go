package hub

import "errors"

var (
	ErrAlreadyRunning = errors.New("hub is already running")
	ErrNotRunning     = errors.New("hub is not running")
	ErrInboundFull    = errors.New("inbound queue is full")
)
