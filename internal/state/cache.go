package state

import (
	"strings"

	"github.com/jbarney86/plugged/internal/domain"
)

// CacheUser copies a user into the short-lived lookup cache.
func (s *Store) CacheUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCache[u.ID] = cachedUser{user: u, cachedAt: s.now()}
}

// RemoveCachedUserByID drops a cache entry, reporting whether one
// existed.
func (s *Store) RemoveCachedUserByID(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userCache[id]; !ok {
		return false
	}
	delete(s.userCache, id)
	return true
}

// RemoveCachedUserByName drops the cache entry matching the name.
func (s *Store) RemoveCachedUserByName(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.userCache {
		if strings.EqualFold(entry.user.Username, username) {
			delete(s.userCache, id)
			return true
		}
	}
	return false
}

// ClearUserCache drops every cached user.
func (s *Store) ClearUserCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCache = make(map[domain.UserID]cachedUser)
}

// UserCacheLen reports the cache size; eviction only happens in the
// periodic sweep, so stale entries still count until it runs.
func (s *Store) UserCacheLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.userCache)
}

// AppendChat appends a received message to the chat cache when caching
// is enabled or the message is self-authored, evicting the oldest
// entry on overflow.
func (s *Store) AppendChat(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cacheChat && !strings.EqualFold(msg.Username, s.self.Username) {
		return
	}
	s.chatCache = append(s.chatCache, msg)
	if s.chatCacheSize >= 0 && len(s.chatCache) > s.chatCacheSize {
		s.chatCache = s.chatCache[len(s.chatCache)-s.chatCacheSize:]
	}
}

// RemoveChatMessage drops the cached message with the given id.
func (s *Store) RemoveChatMessage(cid domain.ChatID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, msg := range s.chatCache {
		if msg.CID == cid {
			s.chatCache = append(s.chatCache[:i], s.chatCache[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveChatMessagesByUser drops every cached message by the author.
func (s *Store) RemoveChatMessagesByUser(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chatCache[:0]
	removed := 0
	for _, msg := range s.chatCache {
		if strings.EqualFold(msg.Username, username) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	s.chatCache = kept
	return removed
}

// Chat returns a copy of the cached messages, oldest first.
func (s *Store) Chat() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatMessage(nil), s.chatCache...)
}

// ChatByUser returns the cached messages by the author, oldest first.
func (s *Store) ChatByUser(username string) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]domain.ChatMessage, 0)
	for _, msg := range s.chatCache {
		if strings.EqualFold(msg.Username, username) {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// FindSelfChat returns the id of the most recent self-authored cached
// message with the given text; used to resolve delayed self-deletes.
func (s *Store) FindSelfChat(text string) (domain.ChatID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.chatCache) - 1; i >= 0; i-- {
		msg := s.chatCache[i]
		if msg.Message == text && strings.EqualFold(msg.Username, s.self.Username) {
			return msg.CID, true
		}
	}
	return "", false
}

// ClearChatCache drops every cached chat message.
func (s *Store) ClearChatCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatCache = nil
}
