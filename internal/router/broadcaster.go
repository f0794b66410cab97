package router

import (
	"go.uber.org/zap"

	"chatrelay/pkg/types"
)

// Broadcaster fans typed envelopes out to joined sessions. Delivery is
// best-effort: a session whose channel is not currently writable is
// skipped, never treated as an error.
type Broadcaster struct {
	registry *Registry
	log      *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		log:      log,
	}
}

// Broadcast sends an envelope of the given kind to every joined session
// except excludeID. Pass "" to reach everyone.
func (b *Broadcaster) Broadcast(kind string, payload any, excludeID string) {
	env := types.ServerEnvelope{Type: kind, Payload: payload}

	for _, s := range b.registry.Joined() {
		if s.ID() == excludeID {
			continue
		}
		if err := s.Channel().Send(env); err != nil {
			b.log.Debug("broadcast send skipped",
				zap.String("kind", kind),
				zap.String("session", s.ID()),
				zap.Error(err))
		}
	}
}
