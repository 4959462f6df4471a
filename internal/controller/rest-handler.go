package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/rest"
)

type createRoomResponse struct {
	RoomId string `json:"room_id"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.roomService.GenerateRoomId(r.Context())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to generate room id", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to generate room id"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, createRoomResponse{RoomId: roomId})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	state, err := c.roomService.GetRoomState(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to get room state", "room_id", roomId, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to get room"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, state)
}
