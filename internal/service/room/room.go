package room

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	unlock := s.locks.lock(roomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return RoomState{}, fmt.Errorf("failed to get room: %w", err)
	}

	connIds := maps.Keys(r.Members)
	slices.Sort(connIds)

	members := make([]Member, 0, len(connIds))
	for _, connId := range connIds {
		m := r.Members[connId]
		members = append(members, Member{
			UserId:   connId,
			Username: m.Username,
			PeerId:   m.PeerId,
		})
	}

	return RoomState{
		RoomId:      r.Id,
		VideoURL:    r.Player.VideoURL,
		Playing:     r.Player.IsPlaying,
		CurrentTime: r.Player.CurrentTime,
		Members:     members,
	}, nil
}

// GenerateRoomId returns a short id that no current room uses. The id is not
// reserved: the room is created by the first join.
func (s service) GenerateRoomId(ctx context.Context) (string, error) {
	for i := 0; i < roomIdMaxAttempts; i++ {
		roomId := s.generator.GenerateRandomString(roomIdLength)

		exists, err := s.roomRepo.IsRoomExists(ctx, roomId)
		if err != nil {
			return "", fmt.Errorf("failed to check room: %w", err)
		}

		if !exists {
			return roomId, nil
		}
	}

	return "", ErrRoomIdUnavailable
}
