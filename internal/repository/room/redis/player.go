package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
	omitnilpointers "github.com/watchparty/server/pkg/omit-nil-pointers"
)

type player struct {
	VideoURL    string  `redis:"video_url"`
	IsPlaying   bool    `redis:"is_playing"`
	CurrentTime float64 `redis:"current_time"`
}

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	cmd := r.rc.HGetAll(ctx, r.getPlayerKey(roomId))
	res, err := cmd.Result()
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if len(res) == 0 {
		return room.Player{}, room.ErrRoomNotFound
	}

	var p player
	if err := cmd.Scan(&p); err != nil {
		return room.Player{}, fmt.Errorf("failed to scan player: %w", err)
	}

	return room.Player{
		VideoURL:    p.VideoURL,
		IsPlaying:   p.IsPlaying,
		CurrentTime: p.CurrentTime,
	}, nil
}

func (r repo) UpdatePlayer(ctx context.Context, params *room.UpdatePlayerParams) error {
	if err := r.checkRoomExists(ctx, params.RoomId); err != nil {
		return err
	}

	fields := omitnilpointers.OmitNilPointers(map[string]any{
		"video_url":    params.VideoURL,
		"is_playing":   params.IsPlaying,
		"current_time": params.CurrentTime,
	})
	if len(fields) == 0 {
		return nil
	}

	playerKey := r.getPlayerKey(params.RoomId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, playerKey, fields)
	pipe.Expire(ctx, playerKey, r.expireDuration)
	pipe.Expire(ctx, r.getMembersKey(params.RoomId), r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
