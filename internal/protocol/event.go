// Package protocol defines the events exchanged with room clients over the
// websocket connection.
package protocol

type EventName string

// Inbound events.
const (
	JoinRoom        EventName = "join-room"
	PeerId          EventName = "peer-id"
	ChatMessage     EventName = "chat-message"
	VideoLoaded     EventName = "video-loaded"
	VideoFileLoaded EventName = "video-file-loaded"
	VideoPlay       EventName = "video-play"
	VideoPause      EventName = "video-pause"
	VideoSeek       EventName = "video-seek"
	RequestSync     EventName = "request-sync"
)

// Outbound-only events.
const (
	UserJoined    EventName = "user-joined"
	UserConnected EventName = "user-connected"
	UserLeft      EventName = "user-left"
)
