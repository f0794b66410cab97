package types

import "encoding/json"

// Client -> server envelope kinds. Dispatch over these is exhaustive;
// anything else is answered with an error envelope.
const (
	KindJoin   = "join"
	KindChat   = "chat"
	KindTyping = "typing"
)

// Server -> client envelope kinds.
const (
	KindWelcome     = "welcome"
	KindUserJoined  = "user_joined"
	KindUserLeft    = "user_left"
	KindError       = "error"
	KindRateLimited = "rate_limited"
	// chat and typing reuse the client kind names on the way out.
)

// Envelope is the inbound wire unit. Payload stays raw until the router
// knows which struct to decode it into.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerEnvelope is the outbound wire unit.
type ServerEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ChatMessage is immutable once constructed by the router. Ts is Unix
// milliseconds.
type ChatMessage struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Ts       int64  `json:"ts"`
}

// JoinPayload is the payload of a client join envelope.
type JoinPayload struct {
	Username string `json:"username"`
}

// ChatPayload is the payload of a client chat envelope.
type ChatPayload struct {
	Text string `json:"text"`
}

// TypingPayload is the payload of a client typing envelope.
type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// WelcomePayload is sent to a connection once its join is accepted.
type WelcomePayload struct {
	ClientID    string        `json:"clientId"`
	Username    string        `json:"username"`
	History     []ChatMessage `json:"history"`
	OnlineCount int           `json:"onlineCount"`
}

// PresencePayload carries user_joined and user_left events.
type PresencePayload struct {
	Username    string `json:"username"`
	OnlineCount int    `json:"onlineCount"`
}

// TypingEvent is the broadcast form of a typing notification.
type TypingEvent struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorPayload carries recoverable per-connection errors.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RateLimitedPayload tells the sender when it is worth retrying.
// RetryAfter is milliseconds.
type RateLimitedPayload struct {
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter"`
}

// Channel is the duplex transport seen by the core. The WebSocket layer
// implements it; tests substitute mocks. Send must not block on a slow
// peer, and Terminate must be safe to call at any point in the lifecycle.
type Channel interface {
	// Send marshals v and queues it for delivery. Returns an error when
	// the peer is not currently writable; callers treat that as a skip.
	Send(v any) error
	// Close performs a graceful close handshake with the given status
	// code and reason, then tears the channel down.
	Close(code int, reason string) error
	// Terminate drops the channel without a close handshake.
	Terminate()
	// Ping sends an out-of-band liveness probe.
	Ping() error
}
