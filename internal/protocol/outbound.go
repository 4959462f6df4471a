package protocol

type Output struct {
	Type    EventName `json:"type"`
	Payload any       `json:"payload"`
}

type UserPayload struct {
	Username string `json:"username"`
	UserId   string `json:"userId"`
}

type ChatMessagePayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type VideoLoadedPayload struct {
	Username string `json:"username"`
	VideoUrl string `json:"videoUrl"`
}

type VideoFileLoadedPayload struct {
	Username string `json:"username"`
	FileName string `json:"fileName"`
}

type TimePayload struct {
	Time float64 `json:"time"`
}

type SyncPayload struct {
	Time    float64 `json:"time"`
	Playing bool    `json:"playing"`
}

func NewUserJoined(username, userId string) *Output {
	return &Output{Type: UserJoined, Payload: UserPayload{Username: username, UserId: userId}}
}

// NewUserConnected carries the bare peer id as its payload.
func NewUserConnected(peerId string) *Output {
	return &Output{Type: UserConnected, Payload: peerId}
}

func NewUserLeft(username, userId string) *Output {
	return &Output{Type: UserLeft, Payload: UserPayload{Username: username, UserId: userId}}
}

func NewChatMessage(username, message string) *Output {
	return &Output{Type: ChatMessage, Payload: ChatMessagePayload{Username: username, Message: message}}
}

func NewVideoLoaded(username, videoUrl string) *Output {
	return &Output{Type: VideoLoaded, Payload: VideoLoadedPayload{Username: username, VideoUrl: videoUrl}}
}

func NewVideoFileLoaded(username, fileName string) *Output {
	return &Output{Type: VideoFileLoaded, Payload: VideoFileLoadedPayload{Username: username, FileName: fileName}}
}

func NewVideoPlay(time float64) *Output {
	return &Output{Type: VideoPlay, Payload: TimePayload{Time: time}}
}

func NewVideoPause(time float64) *Output {
	return &Output{Type: VideoPause, Payload: TimePayload{Time: time}}
}

func NewVideoSeek(time float64) *Output {
	return &Output{Type: VideoSeek, Payload: TimePayload{Time: time}}
}

func NewRequestSync(time float64, playing bool) *Output {
	return &Output{Type: RequestSync, Payload: SyncPayload{Time: time, Playing: playing}}
}
