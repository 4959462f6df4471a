package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/protocol"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	client := newClient(conn, c.sendQueueSize, c.logger)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", client.Id()))
	ctx = c.withConnId(ctx, client.Id())

	if err := c.roomService.ConnectMember(ctx, client); err != nil {
		c.logger.ErrorContext(ctx, "failed to connect member", "error", err)
		conn.Close()
		return
	}

	go client.writePump(ctx)
	defer func() {
		client.close()

		leaveResp, err := c.roomService.DisconnectMember(ctx, client.Id())
		if err != nil {
			c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
			return
		}

		c.logger.InfoContext(ctx, "connection closed",
			"room_id", leaveResp.RoomId,
			"room_deleted", leaveResp.IsRoomDeleted,
		)
	}()

	c.logger.InfoContext(ctx, "connection opened", "remote_addr", r.RemoteAddr)

	client.prepareRead()
	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			c.logger.WarnContext(ctx, "connection lost", "error", err)
		}
	}
}

func (c controller) handleMessage(ctx context.Context, msg *wsrouter.Message) error {
	event, err := protocol.Decode(msg.Type, msg.Payload)
	if err != nil {
		return err
	}

	if validationErrors, ok := c.validate.Validate(event); !ok {
		return fmt.Errorf("%w: %s: %+v", protocol.ErrMalformedPayload, msg.Type, validationErrors)
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", event.Room()))
	connId := c.getConnIdFromCtx(ctx)

	var delivered int
	switch e := event.(type) {
	case *protocol.JoinRoomEvent:
		var resp room.JoinRoomResponse
		resp, err = c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
			ConnId:   connId,
			RoomId:   e.RoomId,
			Username: e.Username,
		})
		delivered = resp.Delivered
	case *protocol.PeerIdEvent:
		delivered, err = relayed(c.roomService.AttachPeerId(ctx, &room.AttachPeerIdParams{
			ConnId: connId,
			RoomId: e.RoomId,
			PeerId: e.PeerId,
		}))
	case *protocol.ChatMessageEvent:
		delivered, err = relayed(c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
			ConnId:   connId,
			RoomId:   e.RoomId,
			Username: e.Username,
			Message:  *e.Message,
		}))
	case *protocol.VideoLoadedEvent:
		delivered, err = relayed(c.roomService.LoadVideo(ctx, &room.LoadVideoParams{
			ConnId:   connId,
			RoomId:   e.RoomId,
			VideoURL: e.VideoUrl,
		}))
	case *protocol.VideoFileLoadedEvent:
		delivered, err = relayed(c.roomService.LoadVideoFile(ctx, &room.LoadVideoFileParams{
			ConnId:   connId,
			RoomId:   e.RoomId,
			FileName: e.FileName,
		}))
	case *protocol.VideoPlayEvent:
		delivered, err = relayed(c.roomService.Play(ctx, playback(connId, e.RoomId, e.Time)))
	case *protocol.VideoPauseEvent:
		delivered, err = relayed(c.roomService.Pause(ctx, playback(connId, e.RoomId, e.Time)))
	case *protocol.VideoSeekEvent:
		delivered, err = relayed(c.roomService.Seek(ctx, playback(connId, e.RoomId, e.Time)))
	case *protocol.RequestSyncEvent:
		delivered, err = relayed(c.roomService.RequestSync(ctx, playback(connId, e.RoomId, e.Time)))
	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownEvent, event.Name())
	}
	if err != nil {
		return fmt.Errorf("failed to handle %s: %w", event.Name(), err)
	}

	c.logger.DebugContext(ctx, "event relayed", "delivered", delivered)
	return nil
}

func relayed(resp room.RelayResponse, err error) (int, error) {
	return resp.Delivered, err
}

// playback expects time to be checked non-nil by the validator.
func playback(connId, roomId string, time *float64) *room.PlaybackParams {
	return &room.PlaybackParams{
		ConnId: connId,
		RoomId: roomId,
		Time:   *time,
	}
}

// handleWSError logs a failed message. The connection is never closed and the
// sender is never told.
func (c controller) handleWSError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrMemberNotFound):
		c.logger.DebugContext(ctx, "event dropped", "error", err)
	case errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, protocol.ErrUnknownEvent),
		errors.Is(err, protocol.ErrMalformedPayload):
		c.logger.WarnContext(ctx, "malformed message dropped", "error", err)
	default:
		c.logger.ErrorContext(ctx, "failed to handle message", "error", err)
	}
}
