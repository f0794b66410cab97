// Package hub serializes all shared-state mutation onto one event loop.
// Connects, inbound frames, and disconnects are queued on channels and
// drained by a single goroutine that calls into the router, so registry,
// history, and session state never see overlapping writers.
package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chatrelay/internal/router"
	"chatrelay/pkg/types"
)

const (
	inboundBuffer    = 512
	connectBuffer    = 16
	disconnectBuffer = 64
)

// Hub owns the event loop. Transport goroutines talk to it through
// Connect, Dispatch and Disconnect; the loop runs their effects to
// completion one at a time.
type Hub struct {
	inbound    chan inboundFrame
	connects   chan connectRequest
	disconnect chan *router.Session
	shutdown   chan struct{}
	done       chan struct{}

	router *router.Router
	log    *zap.Logger

	running bool
	mu      sync.RWMutex
}

type inboundFrame struct {
	session *router.Session
	data    []byte
}

type connectRequest struct {
	channel types.Channel
	reply   chan *router.Session
}

// NewHub creates a hub around the given router.
func NewHub(r *router.Router, log *zap.Logger) *Hub {
	return &Hub{
		inbound:    make(chan inboundFrame, inboundBuffer),
		connects:   make(chan connectRequest, connectBuffer),
		disconnect: make(chan *router.Session, disconnectBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		router:     r,
		log:        log,
	}
}

// Start launches the event loop. Starting twice is an error.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrAlreadyRunning
	}
	h.running = true

	h.log.Info("hub starting")
	go h.run(ctx)
	return nil
}

// Stop shuts the loop down and waits for it to drain. The router closes
// every open connection with a going-away notification before the loop
// exits.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrNotRunning
	}
	h.running = false
	h.mu.Unlock()

	close(h.shutdown)
	<-h.done
	return nil
}

// Connect hands a freshly accepted transport channel to the loop and
// waits for its session record.
func (h *Hub) Connect(ch types.Channel) (*router.Session, error) {
	if !h.isRunning() {
		return nil, ErrNotRunning
	}

	req := connectRequest{channel: ch, reply: make(chan *router.Session, 1)}
	select {
	case h.connects <- req:
	case <-h.shutdown:
		return nil, ErrNotRunning
	}

	select {
	case s := <-req.reply:
		return s, nil
	case <-h.shutdown:
		return nil, ErrNotRunning
	}
}

// Dispatch queues one inbound frame. When the loop is saturated the
// frame is dropped and ErrInboundFull returned; delivery is best-effort
// and a slow loop must not block transport readers.
func (h *Hub) Dispatch(s *router.Session, data []byte) error {
	if !h.isRunning() {
		return ErrNotRunning
	}

	select {
	case h.inbound <- inboundFrame{session: s, data: data}:
		return nil
	default:
		return ErrInboundFull
	}
}

// Disconnect queues session teardown. Blocks until the loop accepts it
// so cleanup is never lost, except during shutdown when the router will
// close everything anyway.
func (h *Hub) Disconnect(s *router.Session) {
	select {
	case h.disconnect <- s:
	case <-h.shutdown:
	}
}

func (h *Hub) isRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case req := <-h.connects:
			req.reply <- h.router.Connect(req.channel)

		case frame := <-h.inbound:
			h.router.Dispatch(frame.session, frame.data)

		case s := <-h.disconnect:
			h.router.Disconnect(s)

		case <-h.shutdown:
			h.router.Shutdown()
			h.log.Info("hub stopped")
			return

		case <-ctx.Done():
			h.router.Shutdown()
			h.log.Info("hub context cancelled")
			return
		}
	}
}
