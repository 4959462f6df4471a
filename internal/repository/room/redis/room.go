package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	player, err := r.GetPlayer(ctx, roomId)
	if err != nil {
		return room.Room{}, err
	}

	res, err := r.rc.HGetAll(ctx, r.getMembersKey(roomId)).Result()
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to get members: %w", err)
	}

	members := make(map[string]room.Member, len(res))
	for connId, data := range res {
		var m member
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return room.Room{}, fmt.Errorf("failed to decode member %s: %w", connId, err)
		}
		members[connId] = room.Member{Username: m.Username, PeerId: m.PeerId}
	}

	return room.Room{
		Id:      roomId,
		Player:  player,
		Members: members,
	}, nil
}
