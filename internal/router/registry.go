package router

import (
	"strings"
	"sync"
)

// Registry tracks every accepted connection by identifier, plus a
// lowercase display-name index over the joined subset. Name uniqueness is
// case-insensitive: "Alice" and "alice" cannot coexist.
//
// The session map covers all accepted connections so the heartbeat can
// sweep sockets that never joined; presence (Count, Joined) only sees
// sessions that registered a name.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	names    map[string]string // lowercase name -> session ID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		names:    make(map[string]string),
	}
}

// Add tracks a freshly accepted session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

// Register claims name for the session with the given ID. Fails with
// ErrNameTaken when another entry holds the name case-insensitively, and
// ErrSessionNotFound when the ID is not tracked.
func (r *Registry) Register(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	key := strings.ToLower(name)
	if _, taken := r.names[key]; taken {
		return ErrNameTaken
	}

	r.names[key] = id
	s.username = name
	s.state = StateJoined
	return nil
}

// Remove drops the session and releases its name. Idempotent no-op when
// the ID is not tracked.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	if s.username != "" {
		delete(r.names, strings.ToLower(s.username))
	}
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// FindByName looks up the joined session holding name, case-insensitively.
func (r *Registry) FindByName(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Joined returns the sessions that completed a join, for broadcast
// iteration.
func (r *Registry) Joined() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.names))
	for _, id := range r.names {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// All returns every tracked session, joined or not. The heartbeat sweep
// iterates this.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count reports the number of joined sessions, used for presence events
// and the health surface.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
