package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/optional"
)

type roomEntry struct {
	mu      sync.RWMutex
	player  room.Player
	members map[string]room.Member
}

type repo struct {
	rooms  map[string]*roomEntry
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomEntry),
		logger: logger.With("component", "room.inmemory"),
	}
}

func (r *repo) getRoom(roomId string) (*roomEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return entry, nil
}

func (r *repo) EnsureRoom(ctx context.Context, roomId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomId]; ok {
		return false, nil
	}

	r.rooms[roomId] = &roomEntry{
		members: make(map[string]room.Member),
	}

	r.logger.DebugContext(ctx, "room created", "room_id", roomId)
	return true, nil
}

func (r *repo) IsRoomExists(_ context.Context, roomId string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomId]
	return ok, nil
}

func (r *repo) GetRoom(_ context.Context, roomId string) (room.Room, error) {
	entry, err := r.getRoom(roomId)
	if err != nil {
		return room.Room{}, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	return room.Room{
		Id:      roomId,
		Player:  entry.player,
		Members: maps.Clone(entry.members),
	}, nil
}

// RemoveIfEmpty deletes the room when it has no members left and reports
// whether it did.
func (r *repo) RemoveIfEmpty(ctx context.Context, roomId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rooms[roomId]
	if !ok {
		return false, nil
	}

	entry.mu.RLock()
	empty := len(entry.members) == 0
	entry.mu.RUnlock()

	if !empty {
		return false, nil
	}

	delete(r.rooms, roomId)
	r.logger.DebugContext(ctx, "room removed", "room_id", roomId)
	return true, nil
}

// TouchRoom only checks that the room exists: memory rooms never expire.
func (r *repo) TouchRoom(_ context.Context, roomId string) error {
	_, err := r.getRoom(roomId)
	return err
}

func (r *repo) SetMember(_ context.Context, params *room.SetMemberParams) error {
	entry, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	member := entry.members[params.ConnId]
	member.Username = params.Username
	entry.members[params.ConnId] = member

	return nil
}

func (r *repo) GetMember(_ context.Context, params *room.GetMemberParams) (room.Member, error) {
	entry, err := r.getRoom(params.RoomId)
	if err != nil {
		return room.Member{}, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	member, ok := entry.members[params.ConnId]
	if !ok {
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

func (r *repo) GetMemberIds(_ context.Context, roomId string) ([]string, error) {
	entry, err := r.getRoom(roomId)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	return maps.Keys(entry.members), nil
}

func (r *repo) UpdateMemberPeerId(_ context.Context, params *room.UpdateMemberPeerIdParams) error {
	entry, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	member, ok := entry.members[params.ConnId]
	if !ok {
		return room.ErrMemberNotFound
	}

	member.PeerId = optional.Some(params.PeerId)
	entry.members[params.ConnId] = member

	return nil
}

func (r *repo) RemoveMember(_ context.Context, params *room.RemoveMemberParams) (room.Member, error) {
	entry, err := r.getRoom(params.RoomId)
	if err != nil {
		return room.Member{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	member, ok := entry.members[params.ConnId]
	if !ok {
		return room.Member{}, room.ErrMemberNotFound
	}

	delete(entry.members, params.ConnId)
	return member, nil
}

func (r *repo) GetPlayer(_ context.Context, roomId string) (room.Player, error) {
	entry, err := r.getRoom(roomId)
	if err != nil {
		return room.Player{}, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	return entry.player, nil
}

func (r *repo) UpdatePlayer(_ context.Context, params *room.UpdatePlayerParams) error {
	entry, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if params.VideoURL != nil {
		entry.player.VideoURL = *params.VideoURL
	}
	if params.IsPlaying != nil {
		entry.player.IsPlaying = *params.IsPlaying
	}
	if params.CurrentTime != nil {
		entry.player.CurrentTime = *params.CurrentTime
	}

	return nil
}
