package room

import "context"

// Repo is implemented by every room store backend.
type Repo interface {
	EnsureRoom(context.Context, string) (bool, error)
	IsRoomExists(context.Context, string) (bool, error)
	GetRoom(context.Context, string) (Room, error)
	RemoveIfEmpty(context.Context, string) (bool, error)
	TouchRoom(context.Context, string) error
	SetMember(context.Context, *SetMemberParams) error
	GetMember(context.Context, *GetMemberParams) (Member, error)
	GetMemberIds(context.Context, string) ([]string, error)
	UpdateMemberPeerId(context.Context, *UpdateMemberPeerIdParams) error
	RemoveMember(context.Context, *RemoveMemberParams) (Member, error)
	GetPlayer(context.Context, string) (Player, error)
	UpdatePlayer(context.Context, *UpdatePlayerParams) error
}
