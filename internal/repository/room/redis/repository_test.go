package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/internal/repository/room/roomtest"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.Default()), s
}

func TestRepo(t *testing.T) {
	roomtest.Run(t, func(t *testing.T) roomtest.Repo {
		r, _ := newTestRepo(t)
		return r
	})
}

func TestKeysExpire(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.EnsureRoom(ctx, "abc12")
	require.NoError(t, err)
	require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice", RoomId: "abc12"}))

	assert.Equal(t, time.Hour, s.TTL("room:abc12:player"))
	assert.Equal(t, time.Hour, s.TTL("room:abc12:members"))

	s.FastForward(2 * time.Hour)

	exists, err := r.IsRoomExists(ctx, "abc12")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveIfEmptyDeletesKeys(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.EnsureRoom(ctx, "abc12")
	require.NoError(t, err)
	require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice", RoomId: "abc12"}))
	_, err = r.RemoveMember(ctx, &room.RemoveMemberParams{ConnId: "c1", RoomId: "abc12"})
	require.NoError(t, err)

	removed, err := r.RemoveIfEmpty(ctx, "abc12")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Exists("room:abc12:player"))
	assert.False(t, s.Exists("room:abc12:members"))
}

func TestMemberStoredAsJSON(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.EnsureRoom(ctx, "abc12")
	require.NoError(t, err)
	require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice", RoomId: "abc12"}))
	assert.JSONEq(t, `{"username":"alice","peer_id":null}`, s.HGet("room:abc12:members", "c1"))

	require.NoError(t, r.UpdateMemberPeerId(ctx, &room.UpdateMemberPeerIdParams{ConnId: "c1", PeerId: "p1", RoomId: "abc12"}))
	assert.JSONEq(t, `{"username":"alice","peer_id":"p1"}`, s.HGet("room:abc12:members", "c1"))

	// rejoin keeps the attached peer id
	require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{ConnId: "c1", Username: "alice2", RoomId: "abc12"}))
	assert.JSONEq(t, `{"username":"alice2","peer_id":"p1"}`, s.HGet("room:abc12:members", "c1"))
}
