package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		payload string
		want    InboundEvent
	}{
		{
			name:    "join room",
			event:   "join-room",
			payload: `{"roomId":"abc12","username":"alice"}`,
			want:    &JoinRoomEvent{RoomId: "abc12", Username: "alice"},
		},
		{
			name:    "peer id",
			event:   "peer-id",
			payload: `{"roomId":"abc12","peerId":"p-1"}`,
			want:    &PeerIdEvent{RoomId: "abc12", PeerId: "p-1"},
		},
		{
			name:    "video loaded",
			event:   "video-loaded",
			payload: `{"roomId":"abc12","videoUrl":"http://x/v.mp4"}`,
			want:    &VideoLoadedEvent{RoomId: "abc12", VideoUrl: "http://x/v.mp4"},
		},
		{
			name:    "file loaded",
			event:   "video-file-loaded",
			payload: `{"roomId":"abc12","fileName":"movie.mkv"}`,
			want:    &VideoFileLoadedEvent{RoomId: "abc12", FileName: "movie.mkv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.event, json.RawMessage(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, EventName(tt.event), got.Name())
			assert.Equal(t, "abc12", got.Room())
		})
	}
}

func TestDecodeTimeEvents(t *testing.T) {
	for _, name := range []EventName{VideoPlay, VideoPause, VideoSeek, RequestSync} {
		t.Run(string(name), func(t *testing.T) {
			got, err := Decode(string(name), json.RawMessage(`{"roomId":"abc12","time":12.5}`))
			require.NoError(t, err)
			assert.Equal(t, name, got.Name())

			var time *float64
			switch e := got.(type) {
			case *VideoPlayEvent:
				time = e.Time
			case *VideoPauseEvent:
				time = e.Time
			case *VideoSeekEvent:
				time = e.Time
			case *RequestSyncEvent:
				time = e.Time
			}
			require.NotNil(t, time)
			assert.Equal(t, 12.5, *time)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("video-stop", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode("video-play", nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = Decode("video-play", json.RawMessage(`{"roomId":"abc12","time":"soon"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	// missing fields decode fine, validation happens later
	got, err := Decode("video-seek", json.RawMessage(`{"roomId":"abc12"}`))
	require.NoError(t, err)
	assert.Nil(t, got.(*VideoSeekEvent).Time)
}

func TestDecodeChatMessagePresence(t *testing.T) {
	got, err := Decode("chat-message", json.RawMessage(`{"roomId":"abc12","username":"bob","message":""}`))
	require.NoError(t, err)
	require.NotNil(t, got.(*ChatMessageEvent).Message)
	assert.Equal(t, "", *got.(*ChatMessageEvent).Message)

	got, err = Decode("chat-message", json.RawMessage(`{"roomId":"abc12","username":"bob"}`))
	require.NoError(t, err)
	assert.Nil(t, got.(*ChatMessageEvent).Message)
}

func TestOutputJSON(t *testing.T) {
	tests := []struct {
		name string
		out  *Output
		want string
	}{
		{"user joined", NewUserJoined("alice", "c1"), `{"type":"user-joined","payload":{"username":"alice","userId":"c1"}}`},
		{"user connected", NewUserConnected("peer-1"), `{"type":"user-connected","payload":"peer-1"}`},
		{"user left", NewUserLeft("alice", "peer-1"), `{"type":"user-left","payload":{"username":"alice","userId":"peer-1"}}`},
		{"chat", NewChatMessage("bob", "hi"), `{"type":"chat-message","payload":{"username":"bob","message":"hi"}}`},
		{"video loaded", NewVideoLoaded("bob", "http://x/v.mp4"), `{"type":"video-loaded","payload":{"username":"bob","videoUrl":"http://x/v.mp4"}}`},
		{"file loaded", NewVideoFileLoaded("bob", "a.mp4"), `{"type":"video-file-loaded","payload":{"username":"bob","fileName":"a.mp4"}}`},
		{"play", NewVideoPlay(12.5), `{"type":"video-play","payload":{"time":12.5}}`},
		{"pause", NewVideoPause(3), `{"type":"video-pause","payload":{"time":3}}`},
		{"seek", NewVideoSeek(0), `{"type":"video-seek","payload":{"time":0}}`},
		{"sync", NewRequestSync(7.25, true), `{"type":"request-sync","payload":{"time":7.25,"playing":true}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.out)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
