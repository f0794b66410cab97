package router

import (
	"sync/atomic"

	"chatrelay/pkg/types"
)

// SessionState is the per-connection lifecycle. There is no transition
// out of StateClosed.
type SessionState int

const (
	// StateConnected: transport is open, no display name yet. Only a
	// join envelope advances the session.
	StateConnected SessionState = iota
	// StateJoined: display name registered, chat and typing accepted.
	StateJoined
	// StateClosed: terminal.
	StateClosed
)

// Session is the per-connection state record, keyed by ID in the
// Registry. The state machine and username are mutated only from the hub
// loop; the liveness flag is also touched by the pong callback and the
// heartbeat sweep, hence atomic.
type Session struct {
	id      string
	channel types.Channel
	limiter *RateLimiter

	username string
	state    SessionState

	alive atomic.Bool
}

// ID returns the opaque connection identifier generated at accept time.
func (s *Session) ID() string { return s.id }

// Channel returns the session's transport handle.
func (s *Session) Channel() types.Channel { return s.channel }

// Username returns the display name, or "" before join.
func (s *Session) Username() string { return s.username }

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// MarkAlive records a liveness probe acknowledgement. Called from the
// transport's pong path.
func (s *Session) MarkAlive() { s.alive.Store(true) }

// Expire clears the liveness flag ahead of the next probe.
func (s *Session) Expire() { s.alive.Store(false) }

// Alive reports whether the connection acknowledged a probe since the
// last sweep.
func (s *Session) Alive() bool { return s.alive.Load() }
