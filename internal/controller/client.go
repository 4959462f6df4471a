package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// client owns one websocket. Outbound messages go through a bounded queue
// drained by writePump, the only writer on the connection.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan *protocol.Output
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newClient(conn *websocket.Conn, queueSize int, logger *slog.Logger) *client {
	return &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan *protocol.Output, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *client) Id() string {
	return c.id
}

// Send never blocks. It reports false when the queue is full or the client
// is closed.
func (c *client) Send(msg *protocol.Output) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.DebugContext(ctx, "failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to write ping", "error", err)
				return
			}
		}
	}
}

func (c *client) prepareRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}
