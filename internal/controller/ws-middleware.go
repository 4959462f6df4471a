package controller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) wsMessageIdMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, msg *wsrouter.Message) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_message_id", c.generateTimeBasedId()))
			return next(ctx, msg)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, msg *wsrouter.Message) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received", "payload_size", len(msg.Payload))

			start := time.Now()

			err := next(ctx, msg)

			c.logger.DebugContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"goroutines", runtime.NumGoroutine(),
			)

			return err
		}
	}
}

// recoverWSMw turns a handler panic into an error so one bad message does not
// take the connection down.
func (c controller) recoverWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, msg *wsrouter.Message) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic while handling message: %v", rec)
				}
			}()

			return next(ctx, msg)
		}
	}
}
