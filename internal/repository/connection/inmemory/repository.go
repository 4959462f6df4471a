package inmemory

import (
	"log/slog"
	"sync"

	"github.com/watchparty/server/internal/repository/connection"
)

type repo struct {
	connList map[string]connection.Conn
	roomList map[string]string
	peerList map[string]string
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[string]connection.Conn),
		roomList: make(map[string]string),
		peerList: make(map[string]string),
		logger:   logger.With("component", "connection.inmemory"),
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.Id())
	if _, ok := r.connList[conn.Id()]; ok {
		return connection.ErrAlreadyExists
	}

	r.connList[conn.Id()] = conn
	return nil
}

// Remove forgets the connection together with its room and peer id entries.
func (r *repo) Remove(connId string) error {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	if _, ok := r.connList[connId]; !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, connId)
	delete(r.roomList, connId)
	delete(r.peerList, connId)
	return nil
}

func (r *repo) GetConn(connId string) (connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connList)
}

func (r *repo) SetRoomId(connId, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roomList[connId] = roomId
}

func (r *repo) GetRoomId(connId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomId, ok := r.roomList[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	return roomId, nil
}

// RoomIds lists every room at least one connection is in.
func (r *repo) RoomIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.roomList))
	roomIds := make([]string, 0, len(r.roomList))
	for _, roomId := range r.roomList {
		if _, ok := seen[roomId]; ok {
			continue
		}
		seen[roomId] = struct{}{}
		roomIds = append(roomIds, roomId)
	}

	return roomIds
}

func (r *repo) RemoveRoomId(connId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.roomList, connId)
}

func (r *repo) SetPeerId(connId, peerId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peerList[connId] = peerId
}

func (r *repo) GetPeerId(connId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peerId, ok := r.peerList[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	return peerId, nil
}

func (r *repo) RemovePeerId(connId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.peerList, connId)
}
