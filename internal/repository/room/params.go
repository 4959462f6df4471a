package room

type SetMemberParams struct {
	ConnId   string
	Username string
	RoomId   string
}

type GetMemberParams struct {
	ConnId string
	RoomId string
}

type UpdateMemberPeerIdParams struct {
	ConnId string
	PeerId string
	RoomId string
}

type RemoveMemberParams struct {
	ConnId string
	RoomId string
}

// UpdatePlayerParams leaves fields with nil values untouched.
type UpdatePlayerParams struct {
	VideoURL    *string
	IsPlaying   *bool
	CurrentTime *float64
	RoomId      string
}
