package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/optional"
)

type member struct {
	Username string                  `json:"username"`
	PeerId   optional.Option[string] `json:"peer_id"`
}

func (r repo) getMembersKey(roomId string) string {
	return "room:" + roomId + ":members"
}

func (r repo) getMember(ctx context.Context, roomId, connId string) (member, error) {
	data, err := r.rc.HGet(ctx, r.getMembersKey(roomId), connId).Bytes()
	if err != nil {
		if isNil(err) {
			return member{}, room.ErrMemberNotFound
		}
		return member{}, err
	}

	var m member
	if err := json.Unmarshal(data, &m); err != nil {
		return member{}, fmt.Errorf("failed to decode member: %w", err)
	}

	return m, nil
}

func (r repo) setMember(ctx context.Context, roomId, connId string, m member) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode member: %w", err)
	}

	membersKey := r.getMembersKey(roomId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, membersKey, connId, data)
	pipe.Expire(ctx, membersKey, r.expireDuration)
	pipe.Expire(ctx, r.getPlayerKey(roomId), r.expireDuration)

	return r.executePipe(ctx, pipe)
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	if err := r.checkRoomExists(ctx, params.RoomId); err != nil {
		return err
	}

	m, err := r.getMember(ctx, params.RoomId, params.ConnId)
	if err != nil && !errors.Is(err, room.ErrMemberNotFound) {
		return fmt.Errorf("failed to get member: %w", err)
	}
	m.Username = params.Username

	if err := r.setMember(ctx, params.RoomId, params.ConnId, m); err != nil {
		return fmt.Errorf("failed to set member: %w", err)
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	if err := r.checkRoomExists(ctx, params.RoomId); err != nil {
		return room.Member{}, err
	}

	m, err := r.getMember(ctx, params.RoomId, params.ConnId)
	if err != nil {
		return room.Member{}, err
	}

	return room.Member{Username: m.Username, PeerId: m.PeerId}, nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	if err := r.checkRoomExists(ctx, roomId); err != nil {
		return nil, err
	}

	ids, err := r.rc.HKeys(ctx, r.getMembersKey(roomId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	return ids, nil
}

func (r repo) UpdateMemberPeerId(ctx context.Context, params *room.UpdateMemberPeerIdParams) error {
	if err := r.checkRoomExists(ctx, params.RoomId); err != nil {
		return err
	}

	m, err := r.getMember(ctx, params.RoomId, params.ConnId)
	if err != nil {
		return err
	}
	m.PeerId = optional.Some(params.PeerId)

	if err := r.setMember(ctx, params.RoomId, params.ConnId, m); err != nil {
		return fmt.Errorf("failed to update member peer id: %w", err)
	}

	return nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) (room.Member, error) {
	if err := r.checkRoomExists(ctx, params.RoomId); err != nil {
		return room.Member{}, err
	}

	m, err := r.getMember(ctx, params.RoomId, params.ConnId)
	if err != nil {
		return room.Member{}, err
	}

	if err := r.rc.HDel(ctx, r.getMembersKey(params.RoomId), params.ConnId).Err(); err != nil {
		return room.Member{}, fmt.Errorf("failed to remove member: %w", err)
	}

	return room.Member{Username: m.Username, PeerId: m.PeerId}, nil
}
