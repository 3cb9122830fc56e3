// Package wire decodes the tagged-union socket protocol into typed
// records and encodes outbound frames. Every payload normalizer here is
// defensive: the wire format has changed several times, so missing or
// malformed sub-fields decode to safe defaults instead of failing. The
// rest of the client never sees raw payload shapes.
package wire

// Action tags carried in the "a" field of an inbound frame.
const (
	ActionAck         = "ack"
	ActionAdvance     = "advance"
	ActionChat        = "chat"
	ActionChatDelete  = "chatDelete"
	ActionVote        = "vote"
	ActionGrab        = "grab"
	ActionEarn        = "earn"
	ActionLevelUp     = "levelUp"
	ActionSkip        = "skip"
	ActionBan         = "ban"
	ActionBanIP       = "banIP"
	ActionModBan      = "modBan"
	ActionModSkip     = "modSkip"
	ActionModMute     = "modMute"
	ActionModStaff    = "modStaff"
	ActionModAddDJ    = "modAddDJ"
	ActionModMoveDJ   = "modMoveDJ"
	ActionModRemoveDJ = "modRemoveDJ"
	ActionUserJoin    = "userJoin"
	ActionUserLeave   = "userLeave"
	ActionUserUpdate  = "userUpdate"
	ActionDJListCycle = "djListCycle"
	ActionDJListLock  = "djListLocked"
	ActionDJListSync  = "djListUpdate"
	ActionNameChanged = "nameChanged"
	ActionKillSession = "killSession"

	ActionFriendRequest = "friendRequest"
	ActionFriendAccept  = "friendAccept"

	ActionRoomNameUpdate        = "roomNameUpdate"
	ActionRoomDescriptionUpdate = "roomDescriptionUpdate"
	ActionRoomWelcomeUpdate     = "roomWelcomeUpdate"

	ActionPlaylistCycle = "playlistCycle"
	ActionChatRateLimit = "rateLimit"
	ActionFloodAPI      = "floodAPI"
	ActionFloodChat     = "floodChat"

	ActionPlugUpdate  = "plugUpdate"
	ActionPlugMessage = "plugMessage"
	ActionMaintenance = "plugMaintenance"
)
