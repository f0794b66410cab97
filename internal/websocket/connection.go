// Package websocket adapts gorilla/websocket connections to the
// transport Channel the core routes over.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection wraps one gorilla connection behind types.Channel. All
// frame writes go through a single writer goroutine fed by a buffered
// channel; Send never blocks on a slow peer, it reports the peer
// unwritable instead.
type Connection struct {
	conn         *websocket.Conn
	sendCh       chan []byte
	writeTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps conn and starts its writer goroutine.
func NewConnection(conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		sendCh:       make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.Terminate()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Terminate()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send marshals v and queues it. Returns ErrSendBufferFull when the
// peer's queue is saturated and ErrConnectionClosed after teardown;
// callers treat either as a skipped delivery.
func (c *Connection) Send(v any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.sendCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Close performs the close handshake with the given status code, then
// tears the connection down.
func (c *Connection) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.writeTimeout)
		msg := websocket.FormatCloseMessage(code, reason)
		err = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		c.cancel()
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// Terminate drops the connection without a close handshake. Used for
// unresponsive peers and failed writers; safe after Close.
func (c *Connection) Terminate() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
}

// Ping writes a liveness probe control frame.
func (c *Connection) Ping() error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// OnPong registers the probe-acknowledgement callback. Must be set
// before the read loop starts consuming frames.
func (c *Connection) OnPong(fn func()) {
	c.conn.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}
