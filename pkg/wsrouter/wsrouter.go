package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidMessage = errors.New("invalid message")

// Message is the envelope every websocket frame is wrapped in.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, msg *Message) error

type Middleware func(next HandlerFunc) HandlerFunc

type ErrorHandlerFunc func(ctx context.Context, err error)

type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
}

type WSRouter struct {
	handler      HandlerFunc
	middlewares  []Middleware
	errorHandler ErrorHandlerFunc
}

func New(handler HandlerFunc) *WSRouter {
	return &WSRouter{
		handler:      handler,
		errorHandler: func(context.Context, error) {},
	}
}

func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// OnError sets the function called for every message that could not be
// decoded or whose handler returned an error. The connection keeps being served.
func (r *WSRouter) OnError(fn ErrorHandlerFunc) {
	r.errorHandler = fn
}

func (r *WSRouter) chain() HandlerFunc {
	h := r.handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}

	return h
}

// ServeConn reads messages until the connection fails and returns the read error.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	handler := r.chain()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.errorHandler(ctx, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
			continue
		}

		if msg.Type == "" {
			r.errorHandler(ctx, fmt.Errorf("%w: empty type", ErrInvalidMessage))
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, &msg); err != nil {
			r.errorHandler(msgCtx, err)
		}
	}
}
