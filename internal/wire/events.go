package wire

import "github.com/jbarney86/plugged/internal/domain"

// Kind identifies an event emitted by the session. Wire-derived kinds
// reuse their action tag; connection-level kinds are session-local.
type Kind string

const (
	EventAdvance     Kind = ActionAdvance
	EventChat        Kind = ActionChat
	EventChatMention Kind = "chatMention"
	EventChatCommand Kind = "chatCommand"
	EventChatDelete  Kind = ActionChatDelete
	EventVote        Kind = ActionVote
	EventGrab        Kind = ActionGrab
	EventEarn        Kind = ActionEarn
	EventLevelUp     Kind = ActionLevelUp
	EventSkip        Kind = ActionSkip
	EventBan         Kind = ActionBan
	EventBanIP       Kind = ActionBanIP
	EventModBan      Kind = ActionModBan
	EventModSkip     Kind = ActionModSkip
	EventModMute     Kind = ActionModMute
	EventModStaff    Kind = ActionModStaff
	EventModAddDJ    Kind = ActionModAddDJ
	EventModMoveDJ   Kind = ActionModMoveDJ
	EventModRemoveDJ Kind = ActionModRemoveDJ
	EventUserJoin    Kind = ActionUserJoin
	EventFriendJoin  Kind = "friendJoin"
	EventUserLeave   Kind = ActionUserLeave
	EventUserUpdate  Kind = ActionUserUpdate
	EventDJListCycle Kind = ActionDJListCycle
	EventDJListLock  Kind = ActionDJListLock
	EventDJListSync  Kind = ActionDJListSync
	EventNameChanged Kind = ActionNameChanged
	EventKillSession Kind = ActionKillSession

	EventFriendRequest Kind = ActionFriendRequest
	EventFriendAccept  Kind = ActionFriendAccept

	EventRoomNameUpdate        Kind = ActionRoomNameUpdate
	EventRoomDescriptionUpdate Kind = ActionRoomDescriptionUpdate
	EventRoomWelcomeUpdate     Kind = ActionRoomWelcomeUpdate

	EventPlaylistCycle Kind = ActionPlaylistCycle
	EventChatRateLimit Kind = ActionChatRateLimit
	EventFloodAPI      Kind = ActionFloodAPI
	EventFloodChat     Kind = ActionFloodChat

	EventPlugUpdate  Kind = ActionPlugUpdate
	EventPlugMessage Kind = ActionPlugMessage
	EventMaintenance Kind = ActionMaintenance

	// Session lifecycle, never received from the wire.
	EventConnected      Kind = "connected"
	EventConnectionLost Kind = "connectionLost"
	EventJoinedRoom     Kind = "joinedRoom"
	EventError          Kind = "error"
)

// Event is one occurrence delivered to subscribers. Data holds the
// typed record for the kind, e.g. Advance for EventAdvance or
// domain.ChatMessage for EventChat; kinds with no payload carry nil.
type Event struct {
	Kind Kind
	Data any
}

// Advance is the track-change record. Previous summarizes the play that
// just ended, scored from the votes and grabs present at the moment the
// frame arrived.
type Advance struct {
	Booth    domain.Booth
	Playback domain.Playback
	Previous PreviousPlay
}

// PreviousPlay captures the outcome of the finished track.
type PreviousPlay struct {
	Media domain.Media
	DJ    domain.UserID
	Score domain.Score
}

// ChatDelete is a moderator removing a chat message.
type ChatDelete struct {
	ModeratorID domain.UserID
	CID         domain.ChatID
}

// CycleUpdate toggles the waitlist cycle flag.
type CycleUpdate struct {
	ShouldCycle bool
	Moderator   string
	ModeratorID domain.UserID
}

// LockUpdate toggles the waitlist lock, optionally clearing it.
type LockUpdate struct {
	IsLocked      bool
	ClearWaitlist bool
	Moderator     string
	ModeratorID   domain.UserID
}

// WaitlistSync replaces the waitlist verbatim.
type WaitlistSync struct {
	Waitlist []domain.UserID
}

// MoveDJ relocates one waitlist entry.
type MoveDJ struct {
	Moderator   string
	ModeratorID domain.UserID
	Username    string
	OldIndex    int
	NewIndex    int
}

// ModBan is a moderator banning a user out of the room.
type ModBan struct {
	ID          domain.UserID
	Moderator   string
	ModeratorID domain.UserID
	Username    string
	Duration    domain.BanDuration
}

// ModSkip is a moderator skipping the current play.
type ModSkip struct {
	Moderator   string
	ModeratorID domain.UserID
}

// ModAddDJ is a moderator adding a user to the waitlist.
type ModAddDJ struct {
	Moderator   string
	ModeratorID domain.UserID
	Username    string
}

// ModRemoveDJ is a moderator removing a user from the waitlist or booth.
type ModRemoveDJ struct {
	Moderator   string
	ModeratorID domain.UserID
	Username    string
	WasPlaying  bool
}

// Promotion changes a user's staff role.
type Promotion struct {
	Moderator   string
	ModeratorID domain.UserID
	Username    string
	ID          domain.UserID
	Role        domain.Role
}

// UserUpdate is a partial profile refresh pushed by the server.
type UserUpdate struct {
	ID       domain.UserID
	Level    int
	Status   int
	AvatarID string
}

// XP is a progression tick for the local user.
type XP struct {
	XP    int
	EP    int
	Level int
}

// LevelUp carries the level reached.
type LevelUp struct {
	Level int
}

// RoomUpdate is a change to one of the room's descriptive fields.
type RoomUpdate struct {
	Value       string
	ModeratorID domain.UserID
}

// Ban is the local user being banned from the room.
type Ban struct {
	Reason   domain.BanReason
	Duration domain.BanDuration
}
