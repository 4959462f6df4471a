package room

import "github.com/watchparty/server/pkg/optional"

// Member is keyed by the connection id of its websocket inside Room.Members.
type Member struct {
	Username string
	PeerId   optional.Option[string]
}

type Player struct {
	VideoURL    string
	IsPlaying   bool
	CurrentTime float64
}

type Room struct {
	Id      string
	Player  Player
	Members map[string]Member
}
