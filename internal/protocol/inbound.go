package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedPayload = errors.New("malformed payload")
)

// InboundEvent is implemented only by the event types of this package.
type InboundEvent interface {
	Name() EventName
	Room() string
	inbound()
}

type JoinRoomEvent struct {
	RoomId   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type PeerIdEvent struct {
	RoomId string `json:"roomId" validate:"required"`
	PeerId string `json:"peerId" validate:"required"`
}

type ChatMessageEvent struct {
	RoomId   string  `json:"roomId" validate:"required"`
	Username string  `json:"username" validate:"required"`
	Message  *string `json:"message" validate:"required"`
}

type VideoLoadedEvent struct {
	RoomId   string `json:"roomId" validate:"required"`
	VideoUrl string `json:"videoUrl"`
}

type VideoFileLoadedEvent struct {
	RoomId   string `json:"roomId" validate:"required"`
	FileName string `json:"fileName"`
}

// Time and Message are pointers so that a missing field can be told apart
// from a zero value.
type VideoPlayEvent struct {
	RoomId string   `json:"roomId" validate:"required"`
	Time   *float64 `json:"time" validate:"required"`
}

type VideoPauseEvent struct {
	RoomId string   `json:"roomId" validate:"required"`
	Time   *float64 `json:"time" validate:"required"`
}

type VideoSeekEvent struct {
	RoomId string   `json:"roomId" validate:"required"`
	Time   *float64 `json:"time" validate:"required"`
}

type RequestSyncEvent struct {
	RoomId string   `json:"roomId" validate:"required"`
	Time   *float64 `json:"time" validate:"required"`
}

func (*JoinRoomEvent) Name() EventName        { return JoinRoom }
func (*PeerIdEvent) Name() EventName          { return PeerId }
func (*ChatMessageEvent) Name() EventName     { return ChatMessage }
func (*VideoLoadedEvent) Name() EventName     { return VideoLoaded }
func (*VideoFileLoadedEvent) Name() EventName { return VideoFileLoaded }
func (*VideoPlayEvent) Name() EventName       { return VideoPlay }
func (*VideoPauseEvent) Name() EventName      { return VideoPause }
func (*VideoSeekEvent) Name() EventName       { return VideoSeek }
func (*RequestSyncEvent) Name() EventName     { return RequestSync }

func (e *JoinRoomEvent) Room() string        { return e.RoomId }
func (e *PeerIdEvent) Room() string          { return e.RoomId }
func (e *ChatMessageEvent) Room() string     { return e.RoomId }
func (e *VideoLoadedEvent) Room() string     { return e.RoomId }
func (e *VideoFileLoadedEvent) Room() string { return e.RoomId }
func (e *VideoPlayEvent) Room() string       { return e.RoomId }
func (e *VideoPauseEvent) Room() string      { return e.RoomId }
func (e *VideoSeekEvent) Room() string       { return e.RoomId }
func (e *RequestSyncEvent) Room() string     { return e.RoomId }

func (*JoinRoomEvent) inbound()        {}
func (*PeerIdEvent) inbound()          {}
func (*ChatMessageEvent) inbound()     {}
func (*VideoLoadedEvent) inbound()     {}
func (*VideoFileLoadedEvent) inbound() {}
func (*VideoPlayEvent) inbound()       {}
func (*VideoPauseEvent) inbound()      {}
func (*VideoSeekEvent) inbound()       {}
func (*RequestSyncEvent) inbound()     {}

var inboundEvents = map[EventName]func() InboundEvent{
	JoinRoom:        func() InboundEvent { return &JoinRoomEvent{} },
	PeerId:          func() InboundEvent { return &PeerIdEvent{} },
	ChatMessage:     func() InboundEvent { return &ChatMessageEvent{} },
	VideoLoaded:     func() InboundEvent { return &VideoLoadedEvent{} },
	VideoFileLoaded: func() InboundEvent { return &VideoFileLoadedEvent{} },
	VideoPlay:       func() InboundEvent { return &VideoPlayEvent{} },
	VideoPause:      func() InboundEvent { return &VideoPauseEvent{} },
	VideoSeek:       func() InboundEvent { return &VideoSeekEvent{} },
	RequestSync:     func() InboundEvent { return &RequestSyncEvent{} },
}

// Decode builds the inbound event named name from its JSON payload. Field
// presence is not checked here.
func Decode(name string, payload json.RawMessage) (InboundEvent, error) {
	newEvent, ok := inboundEvents[EventName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: %s: empty payload", ErrMalformedPayload, name)
	}

	event := newEvent()
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, name, err)
	}

	return event, nil
}
