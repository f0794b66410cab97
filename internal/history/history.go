// Package history keeps the bounded, append-only record of accepted chat
// messages that is replayed to newly joined clients.
package history

import (
	"sync"

	"chatrelay/pkg/types"
)

// History is a FIFO ring capped at max entries. Appends come from the hub
// loop; Snapshot and Len are also read by the HTTP health surface, hence
// the mutex.
type History struct {
	mu       sync.RWMutex
	max      int
	messages []types.ChatMessage
}

// New creates an empty history bounded at max entries.
func New(max int) *History {
	return &History{
		max:      max,
		messages: make([]types.ChatMessage, 0, max),
	}
}

// Append adds msg at the tail, evicting from the head once the capacity
// bound is exceeded. Eviction is purely capacity-driven; entries never
// expire on their own.
func (h *History) Append(msg types.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	if len(h.messages) > h.max {
		overflow := len(h.messages) - h.max
		h.messages = append(h.messages[:0], h.messages[overflow:]...)
	}
}

// Snapshot returns a copy of the current contents in insertion order.
// Callers may hold or serialize it without further coordination.
func (h *History) Snapshot() []types.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len reports the number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
