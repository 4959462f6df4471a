package room

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/protocol"
	"github.com/watchparty/server/internal/repository/room"
)

type RelayResponse struct {
	Delivered int
}

// relay runs apply under the room lock and rebroadcasts its output to the other
// members. Events for rooms that do not exist fail with ErrRoomNotFound.
func (s service) relay(
	ctx context.Context,
	roomId string,
	senderConnId string,
	apply func(ctx context.Context) (*protocol.Output, error),
) (RelayResponse, error) {
	unlock := s.locks.lock(roomId)
	defer unlock()

	exists, err := s.roomRepo.IsRoomExists(ctx, roomId)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("failed to check room: %w", err)
	}

	if !exists {
		return RelayResponse{}, fmt.Errorf("room %s: %w", roomId, ErrRoomNotFound)
	}

	out, err := apply(ctx)
	if err != nil {
		return RelayResponse{}, err
	}

	delivered, err := s.broadcast(ctx, roomId, senderConnId, out)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("failed to broadcast %s: %w", out.Type, err)
	}

	return RelayResponse{Delivered: delivered}, nil
}

type SendChatMessageParams struct {
	ConnId   string
	RoomId   string
	Username string
	Message  string
}

func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(context.Context) (*protocol.Output, error) {
		return protocol.NewChatMessage(params.Username, params.Message), nil
	})
}

type LoadVideoParams struct {
	ConnId   string
	RoomId   string
	VideoURL string
}

func (s service) LoadVideo(ctx context.Context, params *LoadVideoParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		isPlaying := false
		currentTime := 0.0
		if err := s.roomRepo.UpdatePlayer(ctx, &room.UpdatePlayerParams{
			VideoURL:    &params.VideoURL,
			IsPlaying:   &isPlaying,
			CurrentTime: &currentTime,
			RoomId:      params.RoomId,
		}); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}

		username := s.senderUsername(ctx, params.RoomId, params.ConnId)
		return protocol.NewVideoLoaded(username, params.VideoURL), nil
	})
}

type LoadVideoFileParams struct {
	ConnId   string
	RoomId   string
	FileName string
}

// LoadVideoFile only announces the file name: a local file cannot be shared,
// so the room's video source is left as it is.
func (s service) LoadVideoFile(ctx context.Context, params *LoadVideoFileParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		username := s.senderUsername(ctx, params.RoomId, params.ConnId)
		return protocol.NewVideoFileLoaded(username, params.FileName), nil
	})
}

type PlaybackParams struct {
	ConnId string
	RoomId string
	Time   float64
}

func (s service) updatePlayback(ctx context.Context, params *PlaybackParams, isPlaying *bool) error {
	if err := s.roomRepo.UpdatePlayer(ctx, &room.UpdatePlayerParams{
		IsPlaying:   isPlaying,
		CurrentTime: &params.Time,
		RoomId:      params.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (s service) Play(ctx context.Context, params *PlaybackParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		isPlaying := true
		if err := s.updatePlayback(ctx, params, &isPlaying); err != nil {
			return nil, err
		}

		return protocol.NewVideoPlay(params.Time), nil
	})
}

func (s service) Pause(ctx context.Context, params *PlaybackParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		isPlaying := false
		if err := s.updatePlayback(ctx, params, &isPlaying); err != nil {
			return nil, err
		}

		return protocol.NewVideoPause(params.Time), nil
	})
}

func (s service) Seek(ctx context.Context, params *PlaybackParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		if err := s.updatePlayback(ctx, params, nil); err != nil {
			return nil, err
		}

		return protocol.NewVideoSeek(params.Time), nil
	})
}

// RequestSync takes the requester's position as the new room position and
// tells everyone else whether the room is playing.
func (s service) RequestSync(ctx context.Context, params *PlaybackParams) (RelayResponse, error) {
	return s.relay(ctx, params.RoomId, params.ConnId, func(ctx context.Context) (*protocol.Output, error) {
		if err := s.updatePlayback(ctx, params, nil); err != nil {
			return nil, err
		}

		player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
		if err != nil {
			return nil, fmt.Errorf("failed to get player: %w", err)
		}

		return protocol.NewRequestSync(params.Time, player.IsPlaying), nil
	})
}
