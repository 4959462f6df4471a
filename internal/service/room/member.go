package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/protocol"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

func (s service) ConnectMember(ctx context.Context, conn connection.Conn) error {
	if err := s.connRepo.Add(conn); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	s.logger.DebugContext(ctx, "connection added", "conn_id", conn.Id(), "connections", s.connRepo.Count())
	return nil
}

// DisconnectMember is the terminal transition of a connection: it leaves its
// room, if any, and forgets the connection.
func (s service) DisconnectMember(ctx context.Context, connId string) (LeaveRoomResponse, error) {
	leaveResp, leaveErr := s.LeaveRoom(ctx, connId)

	if err := s.connRepo.Remove(connId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		return leaveResp, errors.Join(leaveErr, fmt.Errorf("failed to remove connection: %w", err))
	}

	s.logger.DebugContext(ctx, "connection removed", "conn_id", connId, "connections", s.connRepo.Count())

	return leaveResp, leaveErr
}

type JoinRoomParams struct {
	ConnId   string
	RoomId   string
	Username string
}

type JoinRoomResponse struct {
	IsRoomCreated bool
	Delivered     int
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if prevRoomId, err := s.connRepo.GetRoomId(params.ConnId); err == nil && prevRoomId != params.RoomId {
		if _, err := s.leaveRoom(ctx, params.ConnId, prevRoomId); err != nil {
			s.logger.WarnContext(ctx, "failed to leave previous room", "room_id", prevRoomId, "error", err)
		}
	}

	unlock := s.locks.lock(params.RoomId)
	defer unlock()

	created, err := s.roomRepo.EnsureRoom(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to ensure room: %w", err)
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		ConnId:   params.ConnId,
		Username: params.Username,
		RoomId:   params.RoomId,
	}); err != nil {
		if created {
			if _, removeErr := s.roomRepo.RemoveIfEmpty(ctx, params.RoomId); removeErr != nil {
				err = errors.Join(err, removeErr)
			}
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to set member: %w", err)
	}

	s.connRepo.SetRoomId(params.ConnId, params.RoomId)

	delivered, err := s.broadcast(ctx, params.RoomId, params.ConnId, protocol.NewUserJoined(params.Username, params.ConnId))
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to broadcast user joined: %w", err)
	}

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "conn_id", params.ConnId, "room_created", created)
	return JoinRoomResponse{
		IsRoomCreated: created,
		Delivered:     delivered,
	}, nil
}

type AttachPeerIdParams struct {
	ConnId string
	RoomId string
	PeerId string
}

func (s service) AttachPeerId(ctx context.Context, params *AttachPeerIdParams) (RelayResponse, error) {
	unlock := s.locks.lock(params.RoomId)
	defer unlock()

	if err := s.roomRepo.UpdateMemberPeerId(ctx, &room.UpdateMemberPeerIdParams{
		ConnId: params.ConnId,
		PeerId: params.PeerId,
		RoomId: params.RoomId,
	}); err != nil {
		return RelayResponse{}, fmt.Errorf("failed to update member peer id: %w", err)
	}

	s.connRepo.SetPeerId(params.ConnId, params.PeerId)

	delivered, err := s.broadcast(ctx, params.RoomId, params.ConnId, protocol.NewUserConnected(params.PeerId))
	if err != nil {
		return RelayResponse{}, fmt.Errorf("failed to broadcast user connected: %w", err)
	}

	return RelayResponse{Delivered: delivered}, nil
}

type LeaveRoomResponse struct {
	RoomId        string
	UserId        string
	IsRoomDeleted bool
	Delivered     int
}

// LeaveRoom is a no-op apart from clearing the peer id when the connection is
// in no room.
func (s service) LeaveRoom(ctx context.Context, connId string) (LeaveRoomResponse, error) {
	roomId, err := s.connRepo.GetRoomId(connId)
	if err != nil {
		s.connRepo.RemovePeerId(connId)
		return LeaveRoomResponse{}, nil
	}

	return s.leaveRoom(ctx, connId, roomId)
}

func (s service) leaveRoom(ctx context.Context, connId, roomId string) (LeaveRoomResponse, error) {
	auxPeerId, auxErr := s.connRepo.GetPeerId(connId)
	defer s.connRepo.RemovePeerId(connId)
	s.connRepo.RemoveRoomId(connId)

	unlock := s.locks.lock(roomId)
	defer unlock()

	member, err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		ConnId: connId,
		RoomId: roomId,
	})
	if err != nil {
		return LeaveRoomResponse{RoomId: roomId}, fmt.Errorf("failed to remove member: %w", err)
	}

	// the peer id is the token other clients keyed their call by; without one
	// they only know the connection id
	userId := connId
	if peerId, ok := member.PeerId.Get(); ok {
		userId = peerId
	} else if auxErr == nil {
		userId = auxPeerId
	}

	delivered, err := s.broadcast(ctx, roomId, connId, protocol.NewUserLeft(member.Username, userId))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast user left", "room_id", roomId, "error", err)
	}

	deleted, err := s.roomRepo.RemoveIfEmpty(ctx, roomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to remove empty room: %w", err)
	}

	s.logger.InfoContext(ctx, "member left", "room_id", roomId, "conn_id", connId, "room_deleted", deleted)
	return LeaveRoomResponse{
		RoomId:        roomId,
		UserId:        userId,
		IsRoomDeleted: deleted,
		Delivered:     delivered,
	}, nil
}
