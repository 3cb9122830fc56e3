package session

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jbarney86/plugged/internal/wire"
)

// dispatch applies one inbound message to the store and notifies
// subscribers. It runs on the read goroutine, so mutations and events
// stay in arrival order. Unknown tags are logged and dropped; a frame
// never takes the session down.
func (s *Session) dispatch(m wire.Message) {
	switch m.Action {
	case wire.ActionAck:
		if status := wire.DecodeAck(m.Payload); status == "1" {
			log.Info().Str("module", "session").Msg("socket authenticated")
			s.events.emit(wire.Event{Kind: wire.EventConnected})
		} else {
			log.Error().Str("module", "session").Str("status", status).Msg("socket auth rejected")
			s.events.emit(wire.Event{Kind: wire.EventError, Data: fmt.Sprintf("socket auth rejected: %s", status)})
		}

	case wire.ActionAdvance:
		adv := s.store.ApplyAdvance(wire.DecodeAdvance(m.Payload))
		s.events.emit(wire.Event{Kind: wire.EventAdvance, Data: adv})

	case wire.ActionChat:
		msg := wire.DecodeChat(m.Payload)
		s.store.AppendChat(msg)
		// mention wins over command, and the base event always follows
		self := s.store.Self()
		switch {
		case self.Username != "" && containsMention(msg.Message, self.Username):
			s.events.emit(wire.Event{Kind: wire.EventChatMention, Data: msg})
		case strings.HasPrefix(msg.Message, "/"):
			s.events.emit(wire.Event{Kind: wire.EventChatCommand, Data: msg})
		}
		s.events.emit(wire.Event{Kind: wire.EventChat, Data: msg})

	case wire.ActionChatDelete:
		del := wire.DecodeChatDelete(m.Payload)
		s.store.RemoveChatMessage(del.CID)
		s.events.emit(wire.Event{Kind: wire.EventChatDelete, Data: del})

	case wire.ActionVote:
		vote := wire.DecodeVote(m.Payload)
		if s.store.ApplyVote(vote) {
			s.events.emit(wire.Event{Kind: wire.EventVote, Data: vote})
		}

	case wire.ActionGrab:
		id := wire.DecodeGrab(m.Payload)
		if s.store.ApplyGrab(id) {
			s.events.emit(wire.Event{Kind: wire.EventGrab, Data: id})
		}

	case wire.ActionEarn:
		xp := wire.DecodeXP(m.Payload)
		s.store.ApplyXP(xp)
		s.events.emit(wire.Event{Kind: wire.EventEarn, Data: xp})

	case wire.ActionLevelUp:
		lvl := wire.DecodeLevelUp(m.Payload)
		s.store.ApplyLevelUp(lvl)
		s.events.emit(wire.Event{Kind: wire.EventLevelUp, Data: lvl})

	case wire.ActionSkip:
		s.events.emit(wire.Event{Kind: wire.EventSkip, Data: wire.DecodeUserID(m.Payload)})

	case wire.ActionBan:
		s.events.emit(wire.Event{Kind: wire.EventBan, Data: wire.DecodeBan(m.Payload)})

	case wire.ActionBanIP:
		s.events.emit(wire.Event{Kind: wire.EventBanIP, Data: wire.DecodeBan(m.Payload)})

	case wire.ActionModBan:
		ban := wire.DecodeModBan(m.Payload)
		s.store.ApplyBan(ban.ID)
		s.events.emit(wire.Event{Kind: wire.EventModBan, Data: ban})

	case wire.ActionModSkip:
		s.events.emit(wire.Event{Kind: wire.EventModSkip, Data: wire.DecodeModSkip(m.Payload)})

	case wire.ActionModMute:
		mute := wire.DecodeMute(m.Payload)
		s.store.ApplyMute(mute)
		s.events.emit(wire.Event{Kind: wire.EventModMute, Data: mute})

	case wire.ActionModStaff:
		promo := wire.DecodePromotion(m.Payload)
		s.store.Promote(promo)
		s.events.emit(wire.Event{Kind: wire.EventModStaff, Data: promo})

	case wire.ActionModAddDJ:
		// membership change arrives separately as a djListUpdate
		s.events.emit(wire.Event{Kind: wire.EventModAddDJ, Data: wire.DecodeModAddDJ(m.Payload)})

	case wire.ActionModMoveDJ:
		mv := wire.DecodeMoveDJ(m.Payload)
		s.store.MoveDJ(mv.OldIndex, mv.NewIndex)
		s.events.emit(wire.Event{Kind: wire.EventModMoveDJ, Data: mv})

	case wire.ActionModRemoveDJ:
		s.events.emit(wire.Event{Kind: wire.EventModRemoveDJ, Data: wire.DecodeModRemoveDJ(m.Payload)})

	case wire.ActionUserJoin:
		u := wire.DecodeUser(m.Payload)
		if s.store.AddUser(u) {
			kind := wire.EventUserJoin
			if s.store.Self().IsFriend(u.ID) {
				kind = wire.EventFriendJoin
			}
			s.events.emit(wire.Event{Kind: kind, Data: u})
		}

	case wire.ActionUserLeave:
		if u, ok := s.store.RemoveUser(wire.DecodeUserLeave(m.Payload)); ok {
			s.events.emit(wire.Event{Kind: wire.EventUserLeave, Data: u})
		}

	case wire.ActionUserUpdate:
		upd := wire.DecodeUserUpdate(m.Payload)
		s.store.ApplyUserUpdate(upd)
		s.events.emit(wire.Event{Kind: wire.EventUserUpdate, Data: upd})

	case wire.ActionDJListCycle:
		upd := wire.DecodeCycle(m.Payload)
		s.store.SetCycle(upd.ShouldCycle)
		s.events.emit(wire.Event{Kind: wire.EventDJListCycle, Data: upd})

	case wire.ActionDJListLock:
		upd := wire.DecodeLock(m.Payload)
		s.store.SetLock(upd.IsLocked, upd.ClearWaitlist)
		s.events.emit(wire.Event{Kind: wire.EventDJListLock, Data: upd})

	case wire.ActionDJListSync:
		sync := wire.DecodeWaitlist(m.Payload)
		s.store.SetWaitlist(sync.Waitlist)
		s.events.emit(wire.Event{Kind: wire.EventDJListSync, Data: sync})

	case wire.ActionNameChanged:
		s.events.emit(wire.Event{Kind: wire.EventNameChanged, Data: wire.DecodeString(m.Payload)})

	case wire.ActionKillSession:
		// another login took the session over; do not fight it
		reason := wire.DecodeString(m.Payload)
		log.Warn().Str("module", "session").Str("reason", reason).Msg("session killed by server")
		s.events.emit(wire.Event{Kind: wire.EventKillSession, Data: reason})
		s.mu.Lock()
		sock := s.sock
		s.sock = nil
		s.mu.Unlock()
		if sock != nil {
			go sock.close()
		}

	case wire.ActionFriendRequest:
		s.events.emit(wire.Event{Kind: wire.EventFriendRequest, Data: wire.DecodeString(m.Payload)})

	case wire.ActionFriendAccept:
		s.events.emit(wire.Event{Kind: wire.EventFriendAccept, Data: wire.DecodeString(m.Payload)})

	case wire.ActionRoomNameUpdate:
		upd := wire.DecodeRoomUpdate(m.Payload, "n")
		s.store.SetRoomName(upd.Value)
		s.events.emit(wire.Event{Kind: wire.EventRoomNameUpdate, Data: upd})

	case wire.ActionRoomDescriptionUpdate:
		upd := wire.DecodeRoomUpdate(m.Payload, "d")
		s.store.SetRoomDescription(upd.Value)
		s.events.emit(wire.Event{Kind: wire.EventRoomDescriptionUpdate, Data: upd})

	case wire.ActionRoomWelcomeUpdate:
		upd := wire.DecodeRoomUpdate(m.Payload, "w")
		s.store.SetRoomWelcome(upd.Value)
		s.events.emit(wire.Event{Kind: wire.EventRoomWelcomeUpdate, Data: upd})

	case wire.ActionPlaylistCycle:
		s.events.emit(wire.Event{Kind: wire.EventPlaylistCycle})

	case wire.ActionChatRateLimit:
		s.chat.slowDown()
		s.events.emit(wire.Event{Kind: wire.EventChatRateLimit})

	case wire.ActionFloodAPI:
		s.events.emit(wire.Event{Kind: wire.EventFloodAPI})

	case wire.ActionFloodChat:
		s.chat.slowDown()
		s.events.emit(wire.Event{Kind: wire.EventFloodChat})

	case wire.ActionPlugUpdate:
		s.events.emit(wire.Event{Kind: wire.EventPlugUpdate})

	case wire.ActionPlugMessage:
		s.events.emit(wire.Event{Kind: wire.EventPlugMessage, Data: wire.DecodeString(m.Payload)})

	case wire.ActionMaintenance:
		s.events.emit(wire.Event{Kind: wire.EventMaintenance})

	default:
		log.Debug().Str("module", "session").Str("action", m.Action).Msg("unhandled action dropped")
	}
}

// containsMention reports whether text mentions the username with an
// "@" prefix, case-insensitively.
func containsMention(text, username string) bool {
	needle := "@" + strings.ToLower(username)
	return strings.Contains(strings.ToLower(text), needle)
}
