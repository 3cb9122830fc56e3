package state

import (
	"sort"
	"strings"

	"github.com/jbarney86/plugged/internal/domain"
)

// Voter pairs a vote with the full user snapshot behind it.
type Voter struct {
	User      domain.User
	Direction int
}

// Self returns a copy of the local user's profile.
func (s *Store) Self() domain.Self {
	s.mu.RLock()
	defer s.mu.RUnlock()
	self := s.self
	self.Friends = append([]domain.UserID(nil), s.self.Friends...)
	self.Ignores = append([]domain.Ignore(nil), s.self.Ignores...)
	return self
}

// Meta returns a copy of the room's descriptive snapshot.
func (s *Store) Meta() domain.RoomMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Booth returns a copy of the DJ rotation state.
func (s *Store) Booth() domain.Booth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boothLocked()
}

func (s *Store) boothLocked() domain.Booth {
	b := s.booth
	b.Waitlist = append([]domain.UserID(nil), s.booth.Waitlist...)
	return b
}

// Playback returns a copy of the current play.
func (s *Store) Playback() domain.Playback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

// CurrentMedia returns the track being played.
func (s *Store) CurrentMedia() domain.Media {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback.Media
}

// CurrentDJ resolves the active DJ against the user set.
func (s *Store) CurrentDJ() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[s.booth.DJ]
	return u, ok
}

// Population returns the room's tracked user count.
func (s *Store) Population() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Population
}

// Users returns the present users ordered by id.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// UserByID resolves a user. Self is checked first, then the live user
// set, then — only when checkCache is set — the user cache.
func (s *Store) UserByID(id domain.UserID, checkCache bool) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == s.self.ID {
		return s.self.User, true
	}
	if u, ok := s.users[id]; ok {
		return u, true
	}
	if checkCache {
		if entry, ok := s.userCache[id]; ok {
			return entry.user, true
		}
	}
	return domain.User{}, false
}

// UserByName resolves a user by name. Lookups are case-insensitive:
// the service itself treats names as unique ignoring case, and earlier
// revisions of this client disagreed with each other, so the safer
// normalization is fixed here.
func (s *Store) UserByName(username string, checkCache bool) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.EqualFold(s.self.Username, username) {
		return s.self.User, true
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	if checkCache {
		for _, entry := range s.userCache {
			if strings.EqualFold(entry.user.Username, username) {
				return entry.user, true
			}
		}
	}
	return domain.User{}, false
}

// UserRole returns the staff role of a present user.
func (s *Store) UserRole(id domain.UserID) (domain.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u.Role, ok
}

// Votes returns the recorded votes ordered by user id.
func (s *Store) Votes() []domain.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes := make([]domain.Vote, 0, len(s.votes))
	for id, direction := range s.votes {
		votes = append(votes, domain.Vote{ID: id, Direction: direction})
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })
	return votes
}

// VotesWithUsers resolves each vote against the live user set; votes
// by users no longer resolvable are skipped.
func (s *Store) VotesWithUsers() []Voter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voters := make([]Voter, 0, len(s.votes))
	for id, direction := range s.votes {
		if u, ok := s.users[id]; ok {
			voters = append(voters, Voter{User: u, Direction: direction})
		}
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].User.ID < voters[j].User.ID })
	return voters
}

// Grabs returns the grabbing user ids in ascending order.
func (s *Store) Grabs() []domain.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grabs := make([]domain.UserID, 0, len(s.grabs))
	for id := range s.grabs {
		grabs = append(grabs, id)
	}
	sort.Slice(grabs, func(i, j int) bool { return grabs[i] < grabs[j] })
	return grabs
}

// GrabsWithUsers resolves each grab against the live user set.
func (s *Store) GrabsWithUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.grabs))
	for id := range s.grabs {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// HasVote reports the recorded vote for a user, if any.
func (s *Store) HasVote(id domain.UserID) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	direction, ok := s.votes[id]
	return direction, ok
}

// HasGrab reports whether the user grabbed the current track.
func (s *Store) HasGrab(id domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grabs[id]
	return ok
}

// Mutes returns the active mutes ordered by user id.
func (s *Store) Mutes() []domain.Mute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mutes := make([]domain.Mute, 0, len(s.mutes))
	for _, entry := range s.mutes {
		mutes = append(mutes, entry.mute)
	}
	sort.Slice(mutes, func(i, j int) bool { return mutes[i].ID < mutes[j].ID })
	return mutes
}

// IsMuted reports whether the user has an unexpired mute.
func (s *Store) IsMuted(id domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mutes[id]
	return ok
}

// StaffOnline returns the present users holding any staff role.
func (s *Store) StaffOnline() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staff := make([]domain.User, 0)
	for _, u := range s.users {
		if u.Role > domain.RoleNone {
			staff = append(staff, u)
		}
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff
}

// StaffOnlineByRole returns the present users holding exactly role.
func (s *Store) StaffOnlineByRole(role domain.Role) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staff := make([]domain.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			staff = append(staff, u)
		}
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff
}
