// Package state holds the local mirror of room, self and playback
// state. The session's dispatch loop is the only writer; readers get
// copy-out snapshots so a later dispatch cycle can never tear them.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/jbarney86/plugged/internal/domain"
)

// DefaultChatCacheSize bounds the chat cache unless overridden.
const DefaultChatCacheSize = 256

// DefaultUserCacheTTL is how long a departed user stays resolvable.
const DefaultUserCacheTTL = 5 * time.Minute

type cachedUser struct {
	user     domain.User
	cachedAt time.Time
}

type muteEntry struct {
	mute  domain.Mute
	timer *time.Timer
}

// Store is the in-memory mirror. All methods are safe for concurrent
// use; mutation is expected from a single goroutine (the dispatch
// loop), reads from anywhere.
type Store struct {
	mu sync.RWMutex

	self     domain.Self
	meta     domain.RoomMeta
	booth    domain.Booth
	playback domain.Playback
	users    map[domain.UserID]domain.User
	votes    map[domain.UserID]int
	grabs    map[domain.UserID]struct{}
	mutes    map[domain.UserID]*muteEntry

	userCache map[domain.UserID]cachedUser
	chatCache []domain.ChatMessage

	cacheChat     bool
	cacheOnLeave  bool
	chatCacheSize int
	userCacheTTL  time.Duration

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithChatCache enables caching of every received chat message. Without
// it only self-authored messages are cached (they are needed to resolve
// delayed self-deletes).
func WithChatCache(enabled bool) Option {
	return func(s *Store) { s.cacheChat = enabled }
}

// WithCacheOnLeave copies departing users into the user cache.
func WithCacheOnLeave(enabled bool) Option {
	return func(s *Store) { s.cacheOnLeave = enabled }
}

// WithChatCacheSize overrides the chat cache bound.
func WithChatCacheSize(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.chatCacheSize = n
		}
	}
}

// WithUserCacheTTL overrides the user-cache retention window.
func WithUserCacheTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.userCacheTTL = ttl
		}
	}
}

// withClock substitutes the time source in tests.
func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		users:         make(map[domain.UserID]domain.User),
		votes:         make(map[domain.UserID]int),
		grabs:         make(map[domain.UserID]struct{}),
		mutes:         make(map[domain.UserID]*muteEntry),
		userCache:     make(map[domain.UserID]cachedUser),
		chatCacheSize: DefaultChatCacheSize,
		userCacheTTL:  DefaultUserCacheTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset tears the room state down to empty, stopping mute timers and
// dropping both caches. Self survives: it belongs to the account, not
// the room.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	for _, entry := range s.mutes {
		entry.timer.Stop()
	}
	s.meta = domain.RoomMeta{}
	s.booth = domain.Booth{}
	s.playback = domain.Playback{}
	s.users = make(map[domain.UserID]domain.User)
	s.votes = make(map[domain.UserID]int)
	s.grabs = make(map[domain.UserID]struct{})
	s.mutes = make(map[domain.UserID]*muteEntry)
	s.userCache = make(map[domain.UserID]cachedUser)
	s.chatCache = nil
}

// StartSweep runs the user-cache eviction sweep until ctx is done.
// Eviction is periodic, never synchronous with lookups.
func (s *Store) StartSweep(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultUserCacheTTL
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepUserCache()
			}
		}
	}()
}

// SweepUserCache drops cache entries older than the retention window.
func (s *Store) SweepUserCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.userCacheTTL)
	for id, entry := range s.userCache {
		if entry.cachedAt.Before(cutoff) {
			delete(s.userCache, id)
		}
	}
}
