package room

import "github.com/watchparty/server/pkg/optional"

type Member struct {
	UserId   string                  `json:"user_id"`
	Username string                  `json:"username"`
	PeerId   optional.Option[string] `json:"peer_id"`
}

type RoomState struct {
	RoomId      string   `json:"room_id"`
	VideoURL    string   `json:"video_url"`
	Playing     bool     `json:"playing"`
	CurrentTime float64  `json:"current_time"`
	Members     []Member `json:"members"`
}
