// Package router owns the per-connection state machine and dispatches
// inbound envelopes to their side effects: history appends, registry
// mutation, and broadcast fan-out. All Router methods that mutate shared
// state are invoked from the hub's single event loop and never
// concurrently with each other.
package router

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatrelay/internal/config"
	"chatrelay/internal/history"
	"chatrelay/pkg/types"
)

// Router validates and dispatches inbound envelopes and manages session
// lifecycle from transport accept to teardown.
type Router struct {
	registry    *Registry
	history     *history.History
	broadcaster *Broadcaster
	rateCfg     config.RateLimitConfig
	chatCfg     config.ChatConfig
	log         *zap.Logger
}

// NewRouter wires the router to its collaborators.
func NewRouter(registry *Registry, hist *history.History, broadcaster *Broadcaster,
	rateCfg config.RateLimitConfig, chatCfg config.ChatConfig, log *zap.Logger) *Router {
	return &Router{
		registry:    registry,
		history:     hist,
		broadcaster: broadcaster,
		rateCfg:     rateCfg,
		chatCfg:     chatCfg,
		log:         log,
	}
}

// Connect creates the per-connection state for a freshly accepted
// transport channel: a generated identifier, a full rate limiter, and a
// set liveness flag. The session starts in StateConnected.
func (r *Router) Connect(ch types.Channel) *Session {
	s := &Session{
		id:      uuid.NewString(),
		channel: ch,
		limiter: NewRateLimiter(r.rateCfg.MaxTokens, r.rateCfg.RefillRate, r.rateCfg.RefillInterval),
		state:   StateConnected,
	}
	s.alive.Store(true)

	r.registry.Add(s)
	r.log.Info("connection accepted", zap.String("session", s.id))
	return s
}

// Dispatch validates one inbound frame and routes it by envelope type.
// Every recoverable failure is answered on the sender's channel only.
func (r *Router) Dispatch(s *Session, data []byte) {
	if s.state == StateClosed {
		return
	}

	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		r.sendError(s, ErrInvalidEnvelope)
		return
	}

	switch env.Type {
	case types.KindJoin:
		r.handleJoin(s, env.Payload)
	case types.KindChat:
		r.handleChat(s, env.Payload)
	case types.KindTyping:
		r.handleTyping(s, env.Payload)
	default:
		r.sendError(s, ErrUnknownType)
	}
}

func (r *Router) handleJoin(s *Session, payload json.RawMessage) {
	if s.state == StateJoined {
		r.sendError(s, ErrAlreadyJoined)
		return
	}

	// A missing payload validates like an empty username rather than a
	// malformed envelope.
	var p types.JoinPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendError(s, ErrInvalidEnvelope)
			return
		}
	}

	name := strings.TrimSpace(p.Username)
	if err := types.ValidateUsername(name, r.chatCfg.MaxUsernameLen); err != nil {
		r.sendError(s, err)
		return
	}

	if err := r.registry.Register(s.id, name); err != nil {
		r.sendError(s, err)
		return
	}

	count := r.registry.Count()
	welcome := types.WelcomePayload{
		ClientID:    s.id,
		Username:    name,
		History:     r.history.Snapshot(),
		OnlineCount: count,
	}
	r.send(s, types.KindWelcome, welcome)

	r.broadcaster.Broadcast(types.KindUserJoined, types.PresencePayload{
		Username:    name,
		OnlineCount: count,
	}, s.id)

	r.log.Info("user joined",
		zap.String("session", s.id),
		zap.String("username", name),
		zap.Int("online", count))
}

func (r *Router) handleChat(s *Session, payload json.RawMessage) {
	if s.state != StateJoined {
		r.sendError(s, ErrNotJoined)
		return
	}

	// Rate limit before validation so depleted senders cannot burn CPU
	// on large payloads either.
	if !s.limiter.Consume() {
		r.send(s, types.KindRateLimited, types.RateLimitedPayload{
			Message:    "you are sending messages too fast",
			RetryAfter: r.rateCfg.RefillInterval.Milliseconds(),
		})
		return
	}

	var p types.ChatPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendError(s, ErrInvalidEnvelope)
			return
		}
	}

	text := strings.TrimSpace(p.Text)
	if err := types.ValidateMessageText(text, r.chatCfg.MaxMessageLen); err != nil {
		r.sendError(s, err)
		return
	}

	msg := types.ChatMessage{
		ID:       uuid.NewString(),
		Username: s.username,
		Text:     text,
		Ts:       time.Now().UnixMilli(),
	}
	r.history.Append(msg)

	// Broadcast to everyone, sender included: the echo is the canonical
	// ordering of the message.
	r.broadcaster.Broadcast(types.KindChat, msg, "")
}

func (r *Router) handleTyping(s *Session, payload json.RawMessage) {
	// Typing is ephemeral: unjoined or malformed, just drop it.
	if s.state != StateJoined {
		return
	}

	var p types.TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}

	r.broadcaster.Broadcast(types.KindTyping, types.TypingEvent{
		Username: s.username,
		IsTyping: p.IsTyping,
	}, s.id)
}

// Disconnect tears a session down: registry removal, rate limiter
// disposal, and a user_left broadcast if the session had joined.
// Idempotent; clean closes, transport errors, and heartbeat terminations
// all funnel here and may race into a double call.
func (r *Router) Disconnect(s *Session) {
	if s.state == StateClosed {
		return
	}

	wasJoined := s.state == StateJoined
	name := s.username
	s.state = StateClosed

	s.limiter.Stop()
	r.registry.Remove(s.id)

	if wasJoined {
		r.broadcaster.Broadcast(types.KindUserLeft, types.PresencePayload{
			Username:    name,
			OnlineCount: r.registry.Count(),
		}, "")
	}

	r.log.Info("connection closed",
		zap.String("session", s.id),
		zap.String("username", name),
		zap.Int("online", r.registry.Count()))
}

// Shutdown notifies every open connection that the server is going away
// and tears all sessions down. Called once, from the hub loop, as the
// last thing it does.
func (r *Router) Shutdown() {
	for _, s := range r.registry.All() {
		if s.state == StateClosed {
			continue
		}
		s.state = StateClosed
		s.limiter.Stop()
		if err := s.channel.Close(1001, "server shutting down"); err != nil {
			s.channel.Terminate()
		}
		r.registry.Remove(s.id)
	}
	r.log.Info("router shut down")
}

// send delivers a typed envelope to one session, best-effort.
func (r *Router) send(s *Session, kind string, payload any) {
	if err := s.channel.Send(types.ServerEnvelope{Type: kind, Payload: payload}); err != nil {
		r.log.Debug("reply send skipped",
			zap.String("kind", kind),
			zap.String("session", s.id),
			zap.Error(err))
	}
}

func (r *Router) sendError(s *Session, dispatchErr error) {
	r.send(s, types.KindError, types.ErrorPayload{Message: dispatchErr.Error()})
	if !isClientFault(dispatchErr) {
		r.log.Warn("dispatch error",
			zap.String("session", s.id),
			zap.Error(dispatchErr))
	}
}

// isClientFault separates expected client mistakes from conditions worth
// logging above debug level.
func isClientFault(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidEnvelope),
		errors.Is(err, ErrUnknownType),
		errors.Is(err, ErrNotJoined),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrNameTaken),
		errors.Is(err, types.ErrUsernameEmpty),
		errors.Is(err, types.ErrUsernameTooLong),
		errors.Is(err, types.ErrUsernameInvalid),
		errors.Is(err, types.ErrMessageEmpty),
		errors.Is(err, types.ErrMessageTooLong):
		return true
	}
	return false
}
