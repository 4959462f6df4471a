package inmemory

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/protocol"
	"github.com/watchparty/server/internal/repository/connection"
)

type stubConn struct {
	id string
}

func (c stubConn) Id() string                 { return c.id }
func (c stubConn) Send(*protocol.Output) bool { return true }

func TestAddRemove(t *testing.T) {
	r := NewRepo(slog.Default())

	require.NoError(t, r.Add(stubConn{id: "c1"}))
	assert.ErrorIs(t, r.Add(stubConn{id: "c1"}), connection.ErrAlreadyExists)
	assert.Equal(t, 1, r.Count())

	conn, err := r.GetConn("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conn.Id())

	r.SetRoomId("c1", "abc12")
	r.SetPeerId("c1", "p1")

	require.NoError(t, r.Remove("c1"))
	assert.ErrorIs(t, r.Remove("c1"), connection.ErrNotFound)

	_, err = r.GetConn("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.GetRoomId("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.GetPeerId("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestRoomAndPeerIds(t *testing.T) {
	r := NewRepo(slog.Default())
	require.NoError(t, r.Add(stubConn{id: "c1"}))

	_, err := r.GetRoomId("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	r.SetRoomId("c1", "abc12")
	roomId, err := r.GetRoomId("c1")
	require.NoError(t, err)
	assert.Equal(t, "abc12", roomId)

	r.SetPeerId("c1", "p1")
	peerId, err := r.GetPeerId("c1")
	require.NoError(t, err)
	assert.Equal(t, "p1", peerId)

	r.RemovePeerId("c1")
	r.RemovePeerId("c1")
	_, err = r.GetPeerId("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	r.RemoveRoomId("c1")
	_, err = r.GetRoomId("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestRoomIds(t *testing.T) {
	r := NewRepo(slog.Default())
	assert.Empty(t, r.RoomIds())

	r.SetRoomId("c1", "abc12")
	r.SetRoomId("c2", "abc12")
	r.SetRoomId("c3", "xyz89")

	assert.ElementsMatch(t, []string{"abc12", "xyz89"}, r.RoomIds())

	r.RemoveRoomId("c3")
	assert.Equal(t, []string{"abc12"}, r.RoomIds())
}
