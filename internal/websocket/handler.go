package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatrelay/internal/config"
	"chatrelay/internal/hub"
	"chatrelay/internal/router"
)

// Handler upgrades HTTP requests and bridges the resulting connections
// into the hub: one read goroutine per connection, teardown funneled
// through a single deferred path.
type Handler struct {
	hub      *hub.Hub
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates a WebSocket handler feeding the given hub.
func NewHandler(h *hub.Hub, cfg config.WebSocketConfig, log *zap.Logger) *Handler {
	return &Handler{
		hub: h,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			// Origin checking is deployment policy; the service itself
			// accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleWebSocket is the GET /ws endpoint.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(raw, h.cfg.SendBuffer, h.cfg.WriteTimeout)
	sess, err := h.hub.Connect(conn)
	if err != nil {
		h.log.Warn("connection rejected", zap.Error(err))
		conn.Terminate()
		return
	}

	// Pong frames raise the liveness flag the heartbeat sweep lowered.
	conn.OnPong(sess.MarkAlive)

	go h.readPump(conn, sess)
}

// readPump drains inbound frames until the connection dies for any
// reason, then runs the one teardown path. Clean closes, transport
// errors, and heartbeat terminations all end up here.
func (h *Handler) readPump(conn *Connection, sess *router.Session) {
	defer func() {
		h.hub.Disconnect(sess)
		conn.Terminate()
	}()

	for {
		msgType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error",
					zap.String("session", sess.ID()),
					zap.Error(err))
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}
		if err := h.hub.Dispatch(sess, data); err != nil {
			h.log.Warn("inbound frame dropped",
				zap.String("session", sess.ID()),
				zap.Error(err))
		}
	}
}
