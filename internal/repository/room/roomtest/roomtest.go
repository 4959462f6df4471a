// Package roomtest holds the behaviour every room repository backend must share.
package roomtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/repository/room"
)

type Repo = room.Repo

func ptr[T any](v T) *T {
	return &v
}

func Run(t *testing.T, newRepo func(t *testing.T) Repo) {
	t.Run("ensure room is idempotent", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		created, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)
		assert.True(t, created)

		require.NoError(t, r.UpdatePlayer(ctx, &room.UpdatePlayerParams{
			VideoURL: ptr("http://x/v.mp4"),
			RoomId:   "abc12",
		}))

		created, err = r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)
		assert.False(t, created)

		player, err := r.GetPlayer(ctx, "abc12")
		require.NoError(t, err)
		assert.Equal(t, "http://x/v.mp4", player.VideoURL, "ensure must not reset state")
	})

	t.Run("new room has default player", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		_, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)

		rm, err := r.GetRoom(ctx, "abc12")
		require.NoError(t, err)
		assert.Equal(t, "abc12", rm.Id)
		assert.Equal(t, room.Player{}, rm.Player)
		assert.Empty(t, rm.Members)
	})

	t.Run("missing room", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		exists, err := r.IsRoomExists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = r.GetRoom(ctx, "nope")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)

		_, err = r.GetPlayer(ctx, "nope")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)

		err = r.UpdatePlayer(ctx, &room.UpdatePlayerParams{IsPlaying: ptr(true), RoomId: "nope"})
		assert.ErrorIs(t, err, room.ErrRoomNotFound)

		removed, err := r.RemoveIfEmpty(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, removed)

		assert.ErrorIs(t, r.TouchRoom(ctx, "nope"), room.ErrRoomNotFound)
	})

	t.Run("touch room", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		_, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)
		require.NoError(t, r.TouchRoom(ctx, "abc12"))

		exists, err := r.IsRoomExists(ctx, "abc12")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("members", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		_, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)

		require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice", RoomId: "abc12"}))
		require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c2", Username: "bob", RoomId: "abc12"}))

		ids, err := r.GetMemberIds(ctx, "abc12")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

		member, err := r.GetMember(ctx, &room.GetMemberParams{ConnId: "c1", RoomId: "abc12"})
		require.NoError(t, err)
		assert.Equal(t, "alice", member.Username)
		assert.False(t, member.PeerId.IsSome())

		require.NoError(t, r.UpdateMemberPeerId(ctx, &room.UpdateMemberPeerIdParams{ConnId: "c1", PeerId: "p1", RoomId: "abc12"}))
		member, err = r.GetMember(ctx, &room.GetMemberParams{ConnId: "c1", RoomId: "abc12"})
		require.NoError(t, err)
		peerId, ok := member.PeerId.Get()
		assert.True(t, ok)
		assert.Equal(t, "p1", peerId)

		err = r.UpdateMemberPeerId(ctx, &room.UpdateMemberPeerIdParams{ConnId: "c9", PeerId: "p9", RoomId: "abc12"})
		assert.ErrorIs(t, err, room.ErrMemberNotFound)

		_, err = r.GetMember(ctx, &room.GetMemberParams{ConnId: "c9", RoomId: "abc12"})
		assert.ErrorIs(t, err, room.ErrMemberNotFound)

		rm, err := r.GetRoom(ctx, "abc12")
		require.NoError(t, err)
		assert.Len(t, rm.Members, 2)
		assert.Equal(t, "bob", rm.Members["c2"].Username)
	})

	t.Run("remove if empty", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		_, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)
		require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice", RoomId: "abc12"}))
		require.NoError(t, r.UpdatePlayer(ctx, &room.UpdatePlayerParams{
			VideoURL:    ptr("http://x/v.mp4"),
			IsPlaying:   ptr(true),
			CurrentTime: ptr(42.0),
			RoomId:      "abc12",
		}))

		removed, err := r.RemoveIfEmpty(ctx, "abc12")
		require.NoError(t, err)
		assert.False(t, removed, "room with members must stay")

		member, err := r.RemoveMember(ctx, &room.RemoveMemberParams{ConnId: "c1", RoomId: "abc12"})
		require.NoError(t, err)
		assert.Equal(t, "alice", member.Username)

		_, err = r.RemoveMember(ctx, &room.RemoveMemberParams{ConnId: "c1", RoomId: "abc12"})
		assert.ErrorIs(t, err, room.ErrMemberNotFound)

		removed, err = r.RemoveIfEmpty(ctx, "abc12")
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err := r.IsRoomExists(ctx, "abc12")
		require.NoError(t, err)
		assert.False(t, exists)

		created, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)
		assert.True(t, created)

		player, err := r.GetPlayer(ctx, "abc12")
		require.NoError(t, err)
		assert.Equal(t, room.Player{}, player, "recreated room starts fresh")
	})

	t.Run("partial player update", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		_, err := r.EnsureRoom(ctx, "abc12")
		require.NoError(t, err)

		require.NoError(t, r.UpdatePlayer(ctx, &room.UpdatePlayerParams{
			IsPlaying:   ptr(true),
			CurrentTime: ptr(12.5),
			RoomId:      "abc12",
		}))
		require.NoError(t, r.UpdatePlayer(ctx, &room.UpdatePlayerParams{
			CurrentTime: ptr(30.25),
			RoomId:      "abc12",
		}))

		player, err := r.GetPlayer(ctx, "abc12")
		require.NoError(t, err)
		assert.Equal(t, room.Player{IsPlaying: true, CurrentTime: 30.25}, player)

		require.NoError(t, r.UpdatePlayer(ctx, &room.UpdatePlayerParams{RoomId: "abc12"}))
	})
}
