package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	chatBuffer      = 128
	throttleCeiling = 5
	throttleReset   = 30 * time.Second
)

// chatQueue serializes outbound chat. Messages longer than the byte
// limit are split into limit-sized chunks sent as separate messages,
// and consecutive sends are spaced by the throttle so the server's
// flood protection never trips. A server rate-limit warning escalates
// the spacing until traffic has been clean for a while.
type chatQueue struct {
	sess     *Session
	limit    int
	base     time.Duration
	pending  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	penalty  int
	recovery *time.Timer
}

func newChatQueue(sess *Session, limit int, throttle time.Duration) *chatQueue {
	q := &chatQueue{
		sess:    sess,
		limit:   limit,
		base:    throttle,
		pending: make(chan string, chatBuffer),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// push splits text into chunks and queues them in order.
func (q *chatQueue) push(text string) error {
	for _, chunk := range chunkMessage(text, q.limit) {
		select {
		case q.pending <- chunk:
		default:
			log.Warn().Str("module", "chat").Msg("chat queue full, message dropped")
			return fmt.Errorf("%w: chat queue full", ErrTransport)
		}
	}
	return nil
}

// chunkMessage splits text at the byte limit. A message of exactly
// limit bytes stays whole; one byte more yields a second chunk.
func chunkMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, (len(text)+limit-1)/limit)
	for len(text) > limit {
		chunks = append(chunks, text[:limit])
		text = text[limit:]
	}
	return append(chunks, text)
}

func (q *chatQueue) run() {
	for {
		select {
		case <-q.done:
			return
		case msg := <-q.pending:
			q.sess.mu.Lock()
			sock := q.sess.sock
			q.sess.mu.Unlock()
			if sock == nil {
				log.Warn().Str("module", "chat").Msg("no connection, chat message dropped")
				continue
			}
			if err := sock.sendAction("chat", msg); err != nil {
				log.Error().Str("module", "chat").Err(err).Msg("chat send failed")
			}
			select {
			case <-q.done:
				return
			case <-time.After(q.delay()):
			}
		}
	}
}

func (q *chatQueue) delay() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.base * time.Duration(1+q.penalty)
}

// slowDown widens the send spacing after a server rate-limit warning.
// The penalty decays back to zero once traffic stays clean.
func (q *chatQueue) slowDown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.penalty < throttleCeiling {
		q.penalty++
	}
	if q.recovery != nil {
		q.recovery.Stop()
	}
	q.recovery = time.AfterFunc(throttleReset, func() {
		q.mu.Lock()
		q.penalty = 0
		q.mu.Unlock()
	})
}

func (q *chatQueue) stop() {
	q.stopOnce.Do(func() {
		close(q.done)
		q.mu.Lock()
		if q.recovery != nil {
			q.recovery.Stop()
		}
		q.mu.Unlock()
	})
}

// SendChat queues a chat message for delivery. Long messages are split
// and sent as consecutive chunks.
func (s *Session) SendChat(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty chat message", ErrInvalidArgument)
	}
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return s.chat.push(text)
}

// SendChatTimed queues a chat message and deletes it again once the
// delay elapses. Deletion resolves the message id from the chat cache,
// so it needs the echoed message to have arrived by then.
func (s *Session) SendChatTimed(text string, deleteAfter time.Duration) error {
	if deleteAfter <= 0 {
		return s.SendChat(text)
	}
	chunks := chunkMessage(text, s.cfg.ChatLimit)
	if err := s.SendChat(text); err != nil {
		return err
	}
	time.AfterFunc(deleteAfter, func() {
		for _, chunk := range chunks {
			cid, ok := s.store.FindSelfChat(chunk)
			if !ok {
				log.Warn().Str("module", "chat").Msg("timed message not found in cache, delete skipped")
				continue
			}
			if err := s.DeleteChat(s.ctx, cid); err != nil {
				log.Warn().Str("module", "chat").Err(err).Msg("timed delete failed")
			}
		}
	})
	return nil
}
