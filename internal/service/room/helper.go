package room

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/protocol"
	"github.com/watchparty/server/internal/repository/room"
)

// broadcast queues out to every member of the room except the sender and
// returns how many connections accepted it. Must be called with the room lock held.
func (s service) broadcast(ctx context.Context, roomId, senderConnId string, out *protocol.Output) (int, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return 0, fmt.Errorf("failed to get member ids: %w", err)
	}

	delivered := 0
	for _, memberId := range memberIds {
		if memberId == senderConnId {
			continue
		}

		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			s.logger.DebugContext(ctx, "member has no connection", "conn_id", memberId, "error", err)
			continue
		}

		if !conn.Send(out) {
			s.logger.WarnContext(ctx, "message dropped", "conn_id", memberId, "type", out.Type)
			continue
		}

		delivered++
	}

	return delivered, nil
}

func (s service) senderUsername(ctx context.Context, roomId, connId string) string {
	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		ConnId: connId,
		RoomId: roomId,
	})
	if err != nil {
		return unknownSenderName
	}

	return member.Username
}
