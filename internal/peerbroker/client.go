package peerbroker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

type client struct {
	id       string
	token    string
	conn     *websocket.Conn
	send     chan Message
	done     chan struct{}
	once     sync.Once
	lastSeen time.Time // guarded by Broker.mu
	logger   *slog.Logger
}

func newClient(id, token string, conn *websocket.Conn, queueSize int, logger *slog.Logger) *client {
	return &client{
		id:     id,
		token:  token,
		conn:   conn,
		send:   make(chan Message, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *client) Send(msg Message) bool {
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
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *client) writePump() {
	defer func() {
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
				c.logger.Debug("failed to write message", "peer_id", c.id, "error", err)
				return
			}
		}
	}
}
