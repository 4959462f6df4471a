package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

const defaultSendQueueSize = 256

type iRoomService interface {
	ConnectMember(context.Context, connection.Conn) error
	DisconnectMember(context.Context, string) (room.LeaveRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	AttachPeerId(context.Context, *room.AttachPeerIdParams) (room.RelayResponse, error)
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.RelayResponse, error)
	LoadVideo(context.Context, *room.LoadVideoParams) (room.RelayResponse, error)
	LoadVideoFile(context.Context, *room.LoadVideoFileParams) (room.RelayResponse, error)
	Play(context.Context, *room.PlaybackParams) (room.RelayResponse, error)
	Pause(context.Context, *room.PlaybackParams) (room.RelayResponse, error)
	Seek(context.Context, *room.PlaybackParams) (room.RelayResponse, error)
	RequestSync(context.Context, *room.PlaybackParams) (room.RelayResponse, error)
	GetRoomState(context.Context, string) (room.RoomState, error)
	GenerateRoomId(context.Context) (string, error)
}

type Config struct {
	SendQueueSize int
	// PeerBroker is mounted at /peerjs when set.
	PeerBroker http.Handler
}

type controller struct {
	roomService   iRoomService
	upgrader      websocket.Upgrader
	validate      *validator.Validator
	wsRouter      *wsrouter.WSRouter
	sendQueueSize int
	peerBroker    http.Handler
	logger        *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger, cfg *Config) *controller {
	sendQueueSize := cfg.SendQueueSize
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}

	c := &controller{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:   roomService,
		validate:      validator.NewValidator(),
		sendQueueSize: sendQueueSize,
		peerBroker:    cfg.PeerBroker,
		logger:        logger,
	}

	c.wsRouter = wsrouter.New(c.handleMessage)
	c.wsRouter.Use(c.wsMessageIdMw(), c.loggerWSMw(), c.recoverWSMw())
	c.wsRouter.OnError(c.handleWSError)

	return c
}

func (c controller) generateTimeBasedId() string {
	return ulid.Make().String()
}
