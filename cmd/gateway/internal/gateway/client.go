package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/hub"
	"github.com/vakulkumar/price-alert-system/cmd/gateway/internal/protocol"
)

const (
	maxMessageSize = 64 * 1024
)

var errClientClosed = errors.New("client closed")

// ClientAdapter wires one WebSocket connection into the hub. A connection
// is only torn down when the transport reports a broken socket; an idle
// client gets heartbeats, never a hangup.
type ClientAdapter struct {
	conn   net.Conn
	hub    *hub.Hub
	send   chan []byte
	logger *zap.Logger

	writeWait   time.Duration
	pingTimeout time.Duration

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:        conn,
		hub:         h,
		send:        make(chan []byte, 256),
		logger:      logger,
		writeWait:   5 * time.Second,
		pingTimeout: 30 * time.Second,
	}
}

func (c *ClientAdapter) Start() {
	go c.writePump()
	go c.readPump()
	c.hub.Register(c)
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

func (c *ClientAdapter) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send) // writePump closes the conn after draining
	})
}

// Send enqueues a frame for the write pump. A closed client reports an
// error so the hub can drop it; a full buffer drops the frame instead
// (slow consumers skip ticks rather than stall the broadcast pass).
func (c *ClientAdapter) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- b:
	default:
		// Backpressure: drop for this subscriber only
	}
	return nil
}

func (c *ClientAdapter) sendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		c.Send(b)
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.pingTimeout))

		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// Idle client: nudge it with a heartbeat and keep waiting.
				// Only a broken socket ends the connection.
				c.sendJSON(protocol.Heartbeat{Type: protocol.TypeHeartbeat, Timestamp: time.Now().UTC()})
				continue
			}
			return
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			return
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPing, ws.OpPong:
			continue
		case ws.OpText:
			var msg protocol.ClientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			if msg.Type == protocol.TypePing {
				c.sendJSON(protocol.Pong{Type: protocol.TypePong})
			}
		}
	}
}

func (c *ClientAdapter) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
		if err := wsutil.WriteServerText(c.conn, msg); err != nil {
			return
		}
	}

	// Channel closed: say goodbye properly
	c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
	c.conn.Write(ws.CompiledClose)
}
