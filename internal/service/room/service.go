package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/pkg/randstr"
)

const (
	roomIdLength      = 5
	roomIdMaxAttempts = 10
	unknownSenderName = "Someone"
)

var (
	ErrRoomNotFound      = room.ErrRoomNotFound
	ErrMemberNotFound    = room.ErrMemberNotFound
	ErrRoomIdUnavailable = errors.New("failed to generate unused room id")
)

type iRoomRepo interface {
	// room
	EnsureRoom(context.Context, string) (bool, error)
	IsRoomExists(context.Context, string) (bool, error)
	GetRoom(context.Context, string) (room.Room, error)
	RemoveIfEmpty(context.Context, string) (bool, error)
	TouchRoom(context.Context, string) error
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	GetMemberIds(context.Context, string) ([]string, error)
	UpdateMemberPeerId(context.Context, *room.UpdateMemberPeerIdParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.Member, error)
	// player
	GetPlayer(context.Context, string) (room.Player, error)
	UpdatePlayer(context.Context, *room.UpdatePlayerParams) error
}

type iConnRepo interface {
	Add(connection.Conn) error
	Remove(string) error
	GetConn(string) (connection.Conn, error)
	Count() int
	SetRoomId(connId, roomId string)
	GetRoomId(string) (string, error)
	RemoveRoomId(string)
	RoomIds() []string
	SetPeerId(connId, peerId string)
	GetPeerId(string) (string, error)
	RemovePeerId(string)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	generator iGenerator
	locks     *roomLocks
	logger    *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger) *service {
	return &service{
		roomRepo:  roomRepo,
		connRepo:  connRepo,
		generator: randstr.New([]byte(randstr.Base36)),
		locks:     newRoomLocks(),
		logger:    logger.With("component", "room.service"),
	}
}
