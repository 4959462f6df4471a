package controller

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/protocol"
	conninmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	roominmemory "github.com/watchparty/server/internal/repository/room/inmemory"
	"github.com/watchparty/server/internal/service/room"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := room.NewService(roominmemory.NewRepo(logger), conninmemory.NewRepo(logger), logger)
	c := NewController(svc, logger, &Config{
		PeerBroker: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("broker"))
		}),
	})

	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    eventType,
		"payload": payload,
	}))
}

func receive(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func getRoom(t *testing.T, srv *httptest.Server, roomId string) (int, room.RoomState) {
	t.Helper()

	resp, err := http.Get(srv.URL + "/api/v1/rooms/" + roomId)
	require.NoError(t, err)
	defer resp.Body.Close()

	var state room.RoomState
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	}

	return resp.StatusCode, state
}

func waitMembers(t *testing.T, srv *httptest.Server, roomId string, n int) {
	t.Helper()

	assert.Eventually(t, func() bool {
		status, state := getRoom(t, srv, roomId)
		return status == http.StatusOK && len(state.Members) == n
	}, 2*time.Second, 10*time.Millisecond)
}

// joinPair connects two clients to roomId and returns them with the second
// client's user id as seen by the first.
func joinPair(t *testing.T, srv *httptest.Server, roomId string) (*websocket.Conn, *websocket.Conn, string) {
	t.Helper()

	alice := dial(t, srv)
	send(t, alice, "join-room", map[string]any{"roomId": roomId, "username": "alice"})
	waitMembers(t, srv, roomId, 1)

	bob := dial(t, srv)
	send(t, bob, "join-room", map[string]any{"roomId": roomId, "username": "bob"})

	msg := receive(t, alice)
	require.Equal(t, string(protocol.UserJoined), msg.Type)

	var payload protocol.UserPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "bob", payload.Username)
	require.NotEmpty(t, payload.UserId)

	return alice, bob, payload.UserId
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestCreateRoom(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/rooms", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body createRoomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, body.RoomId, 5)
}

func TestGetRoomNotFound(t *testing.T) {
	srv := newTestServer(t)

	status, _ := getRoom(t, srv, "nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPeerBrokerMounted(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/peerjs/peerjs/id")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "broker", string(body))
}

func TestVideoPlayRelayed(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	send(t, bob, "video-play", map[string]any{"roomId": "abc12", "time": 12.5})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.VideoPlay), msg.Type)
	assert.JSONEq(t, `{"time":12.5}`, string(msg.Payload))
	assertSilent(t, bob)

	status, state := getRoom(t, srv, "abc12")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, state.Playing)
	assert.Equal(t, 12.5, state.CurrentTime)
}

func TestNoStatePushOnJoin(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join-room", map[string]any{"roomId": "abc12", "username": "alice"})
	send(t, alice, "video-loaded", map[string]any{"roomId": "abc12", "videoUrl": "https://x/v.mp4"})
	assert.Eventually(t, func() bool {
		_, state := getRoom(t, srv, "abc12")
		return state.VideoURL == "https://x/v.mp4"
	}, 2*time.Second, 10*time.Millisecond)

	bob := dial(t, srv)
	send(t, bob, "join-room", map[string]any{"roomId": "abc12", "username": "bob"})
	assert.Equal(t, string(protocol.UserJoined), receive(t, alice).Type)
	assertSilent(t, bob)
}

func TestMalformedMessagesKeepConnection(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, bob, "video-play", map[string]any{"roomId": "abc12"})
	send(t, bob, "video-seek", map[string]any{"roomId": "abc12", "time": "soon"})
	send(t, bob, "no-such-event", map[string]any{"roomId": "abc12"})
	send(t, bob, "chat-message", map[string]any{"roomId": "", "username": "bob", "message": "x"})
	send(t, bob, "video-pause", map[string]any{"roomId": "other", "time": 1})
	send(t, bob, "chat-message", map[string]any{"roomId": "abc12", "username": "bob", "message": "still here"})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.ChatMessage), msg.Type)
	assert.JSONEq(t, `{"username":"bob","message":"still here"}`, string(msg.Payload))
	assertSilent(t, bob)

	exists, _ := getRoom(t, srv, "other")
	assert.Equal(t, http.StatusNotFound, exists)
}

func TestDisconnectAnnouncesDeparture(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, bobId := joinPair(t, srv, "abc12")

	require.NoError(t, bob.Close())

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.UserLeft), msg.Type)

	var payload protocol.UserPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, protocol.UserPayload{Username: "bob", UserId: bobId}, payload)

	require.NoError(t, alice.Close())
	assert.Eventually(t, func() bool {
		status, _ := getRoom(t, srv, "abc12")
		return status == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnectUsesPeerId(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	send(t, bob, "peer-id", map[string]any{"roomId": "abc12", "peerId": "peer-bob"})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.UserConnected), msg.Type)
	assert.JSONEq(t, `"peer-bob"`, string(msg.Payload))

	require.NoError(t, bob.Close())

	msg = receive(t, alice)
	assert.Equal(t, string(protocol.UserLeft), msg.Type)
	assert.JSONEq(t, `{"username":"bob","userId":"peer-bob"}`, string(msg.Payload))
}

func TestRequestSyncCarriesPlaying(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	send(t, alice, "video-play", map[string]any{"roomId": "abc12", "time": 3})
	assert.Equal(t, string(protocol.VideoPlay), receive(t, bob).Type)

	send(t, bob, "request-sync", map[string]any{"roomId": "abc12", "time": 7})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.RequestSync), msg.Type)
	assert.JSONEq(t, `{"time":7,"playing":true}`, string(msg.Payload))
}

func TestLongIdsAndNamesAccepted(t *testing.T) {
	srv := newTestServer(t)
	roomId := strings.Repeat("r", 129)
	longName := strings.Repeat("n", 65)

	alice := dial(t, srv)
	send(t, alice, "join-room", map[string]any{"roomId": roomId, "username": "alice"})
	waitMembers(t, srv, roomId, 1)

	bob := dial(t, srv)
	send(t, bob, "join-room", map[string]any{"roomId": roomId, "username": longName})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.UserJoined), msg.Type)

	var payload protocol.UserPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, longName, payload.Username)

	longText := strings.Repeat("x", 5000)
	send(t, bob, "chat-message", map[string]any{"roomId": roomId, "username": longName, "message": longText})

	msg = receive(t, alice)
	assert.Equal(t, string(protocol.ChatMessage), msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &struct{}{}))
	assert.Contains(t, string(msg.Payload), longText)
}

func TestEmptyChatMessageRelayed(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	send(t, bob, "chat-message", map[string]any{"roomId": "abc12", "username": "bob"})
	send(t, bob, "chat-message", map[string]any{"roomId": "abc12", "username": "bob", "message": ""})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.ChatMessage), msg.Type)
	assert.JSONEq(t, `{"username":"bob","message":""}`, string(msg.Payload))
	assertSilent(t, alice)
}

func TestNegativeTimeRelayed(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, _ := joinPair(t, srv, "abc12")

	send(t, bob, "video-seek", map[string]any{"roomId": "abc12", "time": -1.5})

	msg := receive(t, alice)
	assert.Equal(t, string(protocol.VideoSeek), msg.Type)
	assert.JSONEq(t, `{"time":-1.5}`, string(msg.Payload))

	_, state := getRoom(t, srv, "abc12")
	assert.Equal(t, -1.5, state.CurrentTime)
}
