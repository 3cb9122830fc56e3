package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/wire"
)

func testUser(id int64, name string) domain.User {
	return domain.User{ID: domain.UserID(id), Username: name}
}

func TestApplyVoteDedup(t *testing.T) {
	s := New()
	s.AddUser(testUser(7, "alice"))

	assert.True(t, s.ApplyVote(domain.Vote{ID: 7, Direction: 1}), "first vote should emit")
	assert.False(t, s.ApplyVote(domain.Vote{ID: 7, Direction: 1}), "duplicate delivery should not emit")
	assert.Len(t, s.Votes(), 1)
}

func TestApplyVoteDirectionChange(t *testing.T) {
	s := New()
	s.AddUser(testUser(7, "alice"))

	require.True(t, s.ApplyVote(domain.Vote{ID: 7, Direction: 1}))
	assert.False(t, s.ApplyVote(domain.Vote{ID: 7, Direction: -1}), "direction change updates in place without emitting")

	direction, ok := s.HasVote(7)
	require.True(t, ok)
	assert.Equal(t, -1, direction)
}

func TestApplyGrabCancelsVote(t *testing.T) {
	s := New()
	s.AddUser(testUser(7, "alice"))
	require.True(t, s.ApplyVote(domain.Vote{ID: 7, Direction: 1}))

	assert.True(t, s.ApplyGrab(7))
	_, voted := s.HasVote(7)
	assert.False(t, voted, "grab supersedes the vote")
	assert.True(t, s.HasGrab(7))

	assert.False(t, s.ApplyGrab(7), "re-grab is a no-op")
}

func TestVoteAfterGrabIsIgnored(t *testing.T) {
	s := New()
	s.AddUser(testUser(7, "alice"))
	require.True(t, s.ApplyGrab(7))

	assert.False(t, s.ApplyVote(domain.Vote{ID: 7, Direction: 1}), "grab wins over a later vote")
	_, voted := s.HasVote(7)
	assert.False(t, voted, "grabbed user must stay out of the vote set")
	assert.True(t, s.HasGrab(7))
}

func TestSelfVoteAfterSelfGrabIsIgnored(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me")})
	s.SetSelfGrab()

	s.SetSelfVote(1)
	_, voted := s.HasVote(3)
	assert.False(t, voted)
	assert.True(t, s.HasGrab(3))
	assert.True(t, s.Self().Grab)
	assert.Equal(t, 0, s.Self().Vote)
}

func TestSelfVoteOptimisticThenEcho(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me")})

	s.SetSelfVote(1)
	assert.False(t, s.ApplyVote(domain.Vote{ID: 3, Direction: 1}), "echoed own vote must dedup")
	assert.Equal(t, 1, s.Self().Vote)
	assert.Len(t, s.Votes(), 1)
}

func TestApplyAdvanceScoresPreviousPlay(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me")})
	for i := int64(10); i < 15; i++ {
		s.AddUser(testUser(i, fmt.Sprintf("u%d", i)))
	}
	s.Replace(wire.RoomSnapshot{
		Booth:    domain.Booth{DJ: 10},
		Playback: domain.Playback{Media: domain.Media{ID: 1, Title: "old"}, HistoryID: "h1"},
	})
	require.True(t, s.ApplyVote(domain.Vote{ID: 11, Direction: 1}))
	require.True(t, s.ApplyVote(domain.Vote{ID: 12, Direction: -1}))
	require.True(t, s.ApplyGrab(13))
	s.SetSelfVote(1)

	adv := s.ApplyAdvance(wire.AdvanceFrame{
		DJ:        14,
		Waitlist:  []domain.UserID{11, 12},
		Media:     domain.Media{ID: 2, Title: "new"},
		HistoryID: "h2",
	})

	assert.Equal(t, domain.UserID(10), adv.Previous.DJ)
	assert.Equal(t, "old", adv.Previous.Media.Title)
	assert.Equal(t, 2, adv.Previous.Score.Positive)
	assert.Equal(t, 1, adv.Previous.Score.Negative)
	assert.Equal(t, 1, adv.Previous.Score.Grabs)

	assert.Empty(t, s.Votes(), "advance clears votes")
	assert.Empty(t, s.Grabs(), "advance clears grabs")
	assert.Equal(t, 0, s.Self().Vote)
	assert.False(t, s.Self().Grab)
	assert.Equal(t, "h2", s.Playback().HistoryID)
	assert.Equal(t, domain.UserID(14), s.Booth().DJ)
}

func TestAddUserIdempotent(t *testing.T) {
	s := New()
	assert.True(t, s.AddUser(testUser(5, "bob")))
	assert.Equal(t, 1, s.Population())

	refreshed := testUser(5, "bob")
	refreshed.Level = 9
	assert.False(t, s.AddUser(refreshed), "duplicate join refreshes without counting twice")
	assert.Equal(t, 1, s.Population())

	u, ok := s.UserByID(5, false)
	require.True(t, ok)
	assert.Equal(t, 9, u.Level)
}

func TestRemoveUserPurgesEverything(t *testing.T) {
	s := New(WithCacheOnLeave(true))
	s.AddUser(testUser(5, "bob"))
	s.SetWaitlist([]domain.UserID{5, 6})
	require.True(t, s.ApplyVote(domain.Vote{ID: 5, Direction: 1}))

	u, ok := s.RemoveUser(5)
	require.True(t, ok)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, 0, s.Population())
	assert.Empty(t, s.Votes())
	assert.Equal(t, []domain.UserID{6}, s.Booth().Waitlist)

	cached, ok := s.UserByID(5, true)
	require.True(t, ok, "departed user stays resolvable through the cache")
	assert.Equal(t, "bob", cached.Username)

	_, ok = s.RemoveUser(5)
	assert.False(t, ok)
}

func TestUserByNameIsCaseInsensitive(t *testing.T) {
	s := New()
	s.AddUser(testUser(5, "DJKhaled"))

	u, ok := s.UserByName("djkhaled", false)
	require.True(t, ok)
	assert.Equal(t, domain.UserID(5), u.ID)
}

func TestSweepUserCacheEvictsStaleEntries(t *testing.T) {
	now := time.Now()
	clock := &now
	s := New(withClock(func() time.Time { return *clock }), WithUserCacheTTL(5*time.Minute))

	s.CacheUser(testUser(1, "old"))
	later := now.Add(3 * time.Minute)
	clock = &later
	s.CacheUser(testUser(2, "fresh"))

	final := now.Add(6 * time.Minute)
	clock = &final
	s.SweepUserCache()

	assert.Equal(t, 1, s.UserCacheLen())
	_, ok := s.UserByID(2, true)
	assert.True(t, ok)
	_, ok = s.UserByID(1, true)
	assert.False(t, ok)
}

func TestChatCacheEvictsOldest(t *testing.T) {
	s := New(WithChatCache(true), WithChatCacheSize(3))
	for i := 0; i < 5; i++ {
		s.AppendChat(domain.ChatMessage{CID: domain.ChatID(fmt.Sprintf("c%d", i)), Message: fmt.Sprintf("m%d", i), Username: "u"})
	}
	msgs := s.Chat()
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.ChatID("c2"), msgs[0].CID)
	assert.Equal(t, domain.ChatID("c4"), msgs[2].CID)
}

func TestChatCacheKeepsSelfMessagesWhenDisabled(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me")})
	s.AppendChat(domain.ChatMessage{CID: "a", Message: "hi", Username: "someone"})
	s.AppendChat(domain.ChatMessage{CID: "b", Message: "hello", Username: "Me"})

	msgs := s.Chat()
	require.Len(t, msgs, 1, "only self-authored messages are kept without the chat cache")
	assert.Equal(t, domain.ChatID("b"), msgs[0].CID)

	cid, ok := s.FindSelfChat("hello")
	require.True(t, ok)
	assert.Equal(t, domain.ChatID("b"), cid)
}

func TestMoveDJ(t *testing.T) {
	s := New()
	s.SetWaitlist([]domain.UserID{1, 2, 3, 4})

	s.MoveDJ(3, 0)
	assert.Equal(t, []domain.UserID{4, 1, 2, 3}, s.Booth().Waitlist)

	s.MoveDJ(0, 2)
	assert.Equal(t, []domain.UserID{1, 2, 4, 3}, s.Booth().Waitlist)

	s.MoveDJ(9, 0)
	assert.Equal(t, []domain.UserID{1, 2, 4, 3}, s.Booth().Waitlist, "out-of-range move is ignored")
}

func TestApplyMuteExpires(t *testing.T) {
	s := New()
	s.ApplyMute(domain.Mute{ID: 5, Username: "bob", Duration: domain.MuteShort})
	assert.True(t, s.IsMuted(5))

	s.ApplyMute(domain.Mute{ID: 5, Duration: domain.MuteOff})
	assert.False(t, s.IsMuted(5), "MuteOff lifts the mute immediately")
}

func TestReplaceKeepsSelfAndPopulationFollowsUsers(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me"), XP: 100})

	s.Replace(wire.RoomSnapshot{
		Meta:  domain.RoomMeta{Slug: "room", Population: 99},
		Users: []domain.User{testUser(1, "a"), testUser(2, "b")},
		Votes: []domain.Vote{{ID: 1, Direction: 1}, {ID: 2, Direction: 1}},
		Grabs: []domain.UserID{2},
		Role:  domain.RoleBouncer,
	})

	assert.Equal(t, 2, s.Population(), "population follows the user set, not the lagging meta field")
	assert.Equal(t, 100, s.Self().XP)
	assert.Equal(t, domain.RoleBouncer, s.Self().Role)
	assert.Len(t, s.Votes(), 1, "a grab in the snapshot supersedes the same user's vote")
	assert.Equal(t, []domain.UserID{2}, s.Grabs())
}

func TestPromoteRefreshesCachedCopy(t *testing.T) {
	s := New()
	u := testUser(5, "bob")
	s.AddUser(u)
	s.CacheUser(u)

	s.Promote(wire.Promotion{ID: 5, Username: "bob", Role: domain.RoleManager})

	live, ok := s.UserByID(5, false)
	require.True(t, ok)
	assert.Equal(t, domain.RoleManager, live.Role)

	s.RemoveUser(5)
	cached, ok := s.UserByID(5, true)
	require.True(t, ok)
	assert.Equal(t, domain.RoleManager, cached.Role)
}

func TestResetKeepsSelf(t *testing.T) {
	s := New()
	s.SetSelf(domain.Self{User: testUser(3, "me"), XP: 42})
	s.AddUser(testUser(5, "bob"))
	s.ApplyMute(domain.Mute{ID: 5, Duration: domain.MuteLong})

	s.Reset()

	assert.Equal(t, 0, s.Population())
	assert.False(t, s.IsMuted(5))
	assert.Equal(t, 42, s.Self().XP)
}
