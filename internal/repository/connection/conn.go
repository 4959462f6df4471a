package connection

import "github.com/watchparty/server/internal/protocol"

// Conn is a connected client that messages can be queued to.
type Conn interface {
	Id() string
	// Send queues msg without blocking and reports whether it was accepted.
	Send(msg *protocol.Output) bool
}
