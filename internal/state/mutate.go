package state

import (
	"time"

	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/wire"
)

// Replace installs a fresh room snapshot. Nothing is applied until the
// snapshot is complete, so a failed stats fetch never leaves the store
// half-updated. Mutes from the snapshot get fresh expiry timers.
func (s *Store) Replace(snap wire.RoomSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()

	s.meta = snap.Meta
	s.booth = snap.Booth
	s.playback = snap.Playback
	for _, u := range snap.Users {
		s.users[u.ID] = u
	}
	// Population follows the user set; the meta field from the wire can
	// lag behind the users array it was served with.
	s.meta.Population = len(s.users)
	for _, v := range snap.Votes {
		s.votes[v.ID] = v.Direction
	}
	for _, id := range snap.Grabs {
		delete(s.votes, id)
		s.grabs[id] = struct{}{}
	}
	for _, m := range snap.Mutes {
		s.scheduleMuteLocked(m)
	}
	s.self.Role = snap.Role
}

// SetSelf installs the authenticated profile.
func (s *Store) SetSelf(self domain.Self) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = self
}

// ApplyVote records a vote and reports whether it is genuinely new.
// A repeated vote with the same direction is a duplicate delivery and
// changes nothing; a changed direction updates in place. Only a first
// vote for the user warrants an event. A user who already grabbed
// stays out of the vote set entirely: the grab wins, keeping the two
// sets disjoint.
func (s *Store) ApplyVote(v domain.Vote) (emit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grabs[v.ID]; ok {
		return false
	}
	if prev, ok := s.votes[v.ID]; ok {
		if prev != v.Direction {
			s.votes[v.ID] = v.Direction
		}
		return false
	}
	s.votes[v.ID] = v.Direction
	if v.ID == s.self.ID {
		s.self.Vote = v.Direction
	}
	return true
}

// ApplyGrab records a grab. A grab supersedes any pending vote by the
// same user, and re-grabbing is a no-op.
func (s *Store) ApplyGrab(id domain.UserID) (emit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.votes, id)
	if id == s.self.ID {
		s.self.Vote = 0
		s.self.Grab = true
	}
	if _, ok := s.grabs[id]; ok {
		return false
	}
	s.grabs[id] = struct{}{}
	return true
}

// SetSelfVote applies the optimistic local mutation for woot/meh. The
// vote is recorded exactly as the later wire event would record it, so
// the echoed event dedups instead of double-counting. An existing grab
// wins here too, same as ApplyVote.
func (s *Store) SetSelfVote(direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grabs[s.self.ID]; ok {
		return
	}
	s.self.Vote = direction
	if s.self.ID != domain.NoUser {
		s.votes[s.self.ID] = direction
	}
}

// SetSelfGrab applies the optimistic local mutation for a grab.
func (s *Store) SetSelfGrab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.Vote = 0
	s.self.Grab = true
	if s.self.ID != domain.NoUser {
		delete(s.votes, s.self.ID)
		s.grabs[s.self.ID] = struct{}{}
	}
}

// ApplyAdvance processes a track change: it scores the finished play,
// clears votes and grabs, installs the new booth and playback and
// resets the local user's vote/grab flags. The returned record carries
// both the new state and the previous play's outcome.
func (s *Store) ApplyAdvance(f wire.AdvanceFrame) wire.Advance {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := wire.PreviousPlay{
		Media: s.playback.Media,
		DJ:    s.booth.DJ,
		Score: domain.Score{Grabs: len(s.grabs)},
	}
	for _, direction := range s.votes {
		if direction > 0 {
			previous.Score.Positive++
		} else {
			previous.Score.Negative++
		}
	}

	s.votes = make(map[domain.UserID]int)
	s.grabs = make(map[domain.UserID]struct{})
	s.self.Vote = 0
	s.self.Grab = false

	s.booth.DJ = f.DJ
	s.booth.Waitlist = append([]domain.UserID(nil), f.Waitlist...)
	s.playback = domain.Playback{
		Media:      f.Media,
		HistoryID:  f.HistoryID,
		PlaylistID: f.PlaylistID,
		StartTime:  f.StartTime,
	}

	return wire.Advance{
		Booth:    s.boothLocked(),
		Playback: s.playback,
		Previous: previous,
	}
}

// AddUser inserts a joining user. Joining is idempotent on id: a
// duplicate delivery refreshes the snapshot but counts the user once.
func (s *Store) AddUser(u domain.User) (added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.users[u.ID]
	s.users[u.ID] = u
	if !exists {
		s.meta.Population++
	}
	return !exists
}

// RemoveUser removes a departing user, purging votes, grabs and the
// waitlist membership. The departed snapshot is returned for the event
// and, when cache-on-leave is enabled, copied into the user cache.
func (s *Store) RemoveUser(id domain.UserID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	delete(s.users, id)
	s.purgeFromListsLocked(id)
	if s.meta.Population > 0 {
		s.meta.Population--
	}
	if s.cacheOnLeave {
		s.userCache[id] = cachedUser{user: u, cachedAt: s.now()}
	}
	return u, true
}

// ApplyBan removes a banned user the same way a leave does.
func (s *Store) ApplyBan(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; ok {
		delete(s.users, id)
		if s.meta.Population > 0 {
			s.meta.Population--
		}
	}
	s.purgeFromListsLocked(id)
}

func (s *Store) purgeFromListsLocked(id domain.UserID) {
	delete(s.votes, id)
	delete(s.grabs, id)
	for i, wid := range s.booth.Waitlist {
		if wid == id {
			s.booth.Waitlist = append(s.booth.Waitlist[:i], s.booth.Waitlist[i+1:]...)
			break
		}
	}
}

// ApplyUserUpdate merges a partial profile refresh.
func (s *Store) ApplyUserUpdate(upd wire.UserUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[upd.ID]
	if !ok {
		return
	}
	if upd.Level > 0 {
		u.Level = upd.Level
	}
	if upd.Status > 0 {
		u.Status = upd.Status
	}
	if upd.AvatarID != "" {
		u.AvatarID = upd.AvatarID
	}
	s.users[upd.ID] = u
}

// Promote updates the affected user's role and refreshes any cached
// copy so later cache lookups see the new role.
func (s *Store) Promote(p wire.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == s.self.ID {
		s.self.Role = p.Role
	}
	if u, ok := s.users[p.ID]; ok {
		u.Role = p.Role
		s.users[p.ID] = u
		if _, cached := s.userCache[p.ID]; cached {
			s.userCache[p.ID] = cachedUser{user: u, cachedAt: s.now()}
		}
	}
}

// ApplyMute registers a mute and schedules its expiry; the record
// clears itself when the duration elapses. MuteOff removes any active
// mute immediately.
func (s *Store) ApplyMute(m domain.Mute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.mutes[m.ID]; ok {
		entry.timer.Stop()
		delete(s.mutes, m.ID)
	}
	if m.Duration == domain.MuteOff {
		return
	}
	s.scheduleMuteLocked(m)
}

func (s *Store) scheduleMuteLocked(m domain.Mute) {
	id := m.ID
	entry := &muteEntry{mute: m}
	entry.timer = time.AfterFunc(m.Duration.Span(), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if current, ok := s.mutes[id]; ok && current == entry {
			delete(s.mutes, id)
		}
	})
	s.mutes[id] = entry
}

// SetCycle updates the booth cycle flag.
func (s *Store) SetCycle(shouldCycle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booth.ShouldCycle = shouldCycle
}

// SetLock updates the booth lock flag, optionally clearing the
// waitlist in the same step.
func (s *Store) SetLock(locked, clearWaitlist bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booth.IsLocked = locked
	if clearWaitlist {
		s.booth.Waitlist = nil
	}
}

// SetWaitlist replaces the waitlist verbatim; the server's ordering is
// authoritative.
func (s *Store) SetWaitlist(waitlist []domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booth.Waitlist = append([]domain.UserID(nil), waitlist...)
}

// MoveDJ relocates the waitlist entry at oldIndex to newIndex, keeping
// the relative order of everyone else. Out-of-range indexes are
// ignored.
func (s *Store) MoveDJ(oldIndex, newIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wl := s.booth.Waitlist
	if oldIndex < 0 || oldIndex >= len(wl) || newIndex < 0 || newIndex >= len(wl) {
		return
	}
	id := wl[oldIndex]
	wl = append(wl[:oldIndex], wl[oldIndex+1:]...)
	wl = append(wl, 0)
	copy(wl[newIndex+1:], wl[newIndex:])
	wl[newIndex] = id
	s.booth.Waitlist = wl
}

// ApplyXP updates the local user's progression counters.
func (s *Store) ApplyXP(xp wire.XP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.XP = xp.XP
	s.self.EP = xp.EP
	if xp.Level > 0 {
		s.self.Level = xp.Level
	}
}

// ApplyLevelUp bumps the local user's level.
func (s *Store) ApplyLevelUp(lvl wire.LevelUp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lvl.Level > 0 {
		s.self.Level = lvl.Level
		return
	}
	s.self.Level++
}

// SetRoomName updates the room's display name.
func (s *Store) SetRoomName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Name = name
}

// SetRoomDescription updates the room description.
func (s *Store) SetRoomDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Description = description
}

// SetRoomWelcome updates the room welcome message.
func (s *Store) SetRoomWelcome(welcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Welcome = welcome
}

// AddFriend records a confirmed friendship on Self.
func (s *Store) AddFriend(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.self.IsFriend(id) {
		s.self.Friends = append(s.self.Friends, id)
	}
}

// RemoveFriend drops a friendship from Self.
func (s *Store) RemoveFriend(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.self.Friends {
		if f == id {
			s.self.Friends = append(s.self.Friends[:i], s.self.Friends[i+1:]...)
			return
		}
	}
}

// AddIgnore records an ignored user on Self.
func (s *Store) AddIgnore(ig domain.Ignore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.self.Ignores {
		if existing.ID == ig.ID {
			return
		}
	}
	s.self.Ignores = append(s.self.Ignores, ig)
}

// RemoveIgnore drops an ignored user from Self.
func (s *Store) RemoveIgnore(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ig := range s.self.Ignores {
		if ig.ID == id {
			s.self.Ignores = append(s.self.Ignores[:i], s.self.Ignores[i+1:]...)
			return
		}
	}
}

// SetBlurb updates the local user's profile message.
func (s *Store) SetBlurb(blurb string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.Blurb = blurb
}

// SetAvatar updates the local user's avatar.
func (s *Store) SetAvatar(avatarID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.AvatarID = avatarID
}
