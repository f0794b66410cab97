package router

import "errors"

// Recoverable dispatch errors. Each is surfaced to the offending
// connection as an error envelope and never terminates the connection.
var (
	ErrInvalidEnvelope = errors.New("invalid message envelope")
	ErrUnknownType     = errors.New("unknown message type")
	ErrNotJoined       = errors.New("join before sending messages")
	ErrAlreadyJoined   = errors.New("already joined")
	ErrNameTaken       = errors.New("username is already taken")
)

// Registry errors.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Hub-facing errors.
var (
	ErrSessionClosed = errors.New("session is closed")
)
