package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jbarney86/plugged/internal/wire"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Dialer opens the persistent connection. Swapped out in tests.
type Dialer interface {
	Dial(ctx context.Context, url string) (*websocket.Conn, error)
}

type defaultDialer struct{}

func (defaultDialer) Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return conn, err
}

// socket wraps one physical connection: a write pump feeding the wire,
// a read loop feeding dispatch, and the keep-alive watchdog armed by
// server heartbeats.
type socket struct {
	sess *Session
	conn *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	keepAlive *time.Timer
	intended  bool // closed on purpose, do not reconnect
	authSent  bool // auth frame goes out once per physical connection
}

// socketURL derives the per-connection endpoint: a random server id in
// [0, 1000) and an eight character connection id.
func (s *Session) socketURL() string {
	sid := rand.Intn(1000)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d/%s/websocket", s.cfg.SocketURL, sid, id)
}

// openSocket dials the first physical connection. Reconnects after
// that are the socket's own business.
func (s *Session) openSocket(ctx context.Context) error {
	s.mu.Lock()
	if s.sock != nil {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	conn, err := s.dialer.Dial(ctx, s.socketURL())
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrTransport, err)
	}
	sock := newSocket(s, conn)

	s.mu.Lock()
	s.sock = sock
	s.mu.Unlock()
	return nil
}

func newSocket(sess *Session, conn *websocket.Conn) *socket {
	sock := &socket{
		sess: sess,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	sock.resetKeepAlive()
	go sock.writePump()
	go sock.readLoop()
	return sock
}

// trySend queues a frame for the write pump. Non-blocking; a full
// buffer means the connection is wedged and the frame is dropped.
func (sock *socket) trySend(frame []byte) bool {
	select {
	case <-sock.done:
		return false
	default:
	}
	select {
	case sock.send <- frame:
		return true
	default:
		log.Warn().Str("module", "socket").Msg("send buffer full, dropping frame")
		return false
	}
}

// sendAction encodes and queues one tagged frame.
func (sock *socket) sendAction(action, payload string) error {
	frame, err := wire.Encode(action, payload, sock.sess.serverNow())
	if err != nil {
		return err
	}
	if !sock.trySend(frame) {
		return ErrTransport
	}
	return nil
}

func (sock *socket) writePump() {
	for {
		select {
		case <-sock.done:
			return
		case frame := <-sock.send:
			sock.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sock.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Str("module", "socket").Err(err).Msg("write failed")
				sock.teardown()
				return
			}
		}
	}
}

func (sock *socket) readLoop() {
	for {
		_, msg, err := sock.conn.ReadMessage()
		if err != nil {
			select {
			case <-sock.done:
			default:
				log.Warn().Str("module", "socket").Err(err).Msg("read failed")
			}
			sock.teardown()
			return
		}
		sock.handleFrame(msg)
	}
}

// handleFrame classifies one inbound frame. Every frame, whatever its
// type, proves the connection alive and re-arms the watchdog.
func (sock *socket) handleFrame(msg []byte) {
	sock.resetKeepAlive()

	kind, body, err := wire.ClassifyFrame(msg)
	if err != nil {
		log.Warn().Str("module", "socket").Err(err).Msg("unparseable frame dropped")
		return
	}
	switch kind {
	case wire.FrameOpen:
		sock.mu.Lock()
		pending := !sock.authSent
		sock.authSent = true
		sock.mu.Unlock()
		if pending {
			sock.sess.mu.Lock()
			token := sock.sess.authToken
			sock.sess.mu.Unlock()
			if err := sock.sendAction("auth", token); err != nil {
				log.Error().Str("module", "socket").Err(err).Msg("auth frame failed")
			}
		}
	case wire.FrameHeartbeat:
		// watchdog already re-armed above
	case wire.FrameActions:
		msgs, err := wire.ParseActions(body)
		if err != nil {
			log.Warn().Str("module", "socket").Err(err).Msg("malformed action batch dropped")
			return
		}
		for _, m := range msgs {
			sock.sess.dispatch(m)
		}
	}
}

// resetKeepAlive re-arms the watchdog. If the grace period elapses
// with no traffic at all, the connection is declared dead.
func (sock *socket) resetKeepAlive() {
	sock.mu.Lock()
	defer sock.mu.Unlock()
	if sock.keepAlive != nil {
		sock.keepAlive.Stop()
	}
	sock.keepAlive = time.AfterFunc(sock.sess.cfg.KeepAliveGrace, func() {
		log.Warn().Str("module", "socket").Dur("grace", sock.sess.cfg.KeepAliveGrace).Msg("keep-alive expired")
		sock.teardown()
	})
}

// close shuts the connection down for good; no reconnect follows.
func (sock *socket) close() {
	sock.mu.Lock()
	sock.intended = true
	sock.mu.Unlock()
	sock.teardown()
}

// teardown closes the physical connection exactly once and, unless the
// close was intentional, hands off to the reconnect loop.
func (sock *socket) teardown() {
	sock.closeOnce.Do(func() {
		close(sock.done)
		sock.mu.Lock()
		if sock.keepAlive != nil {
			sock.keepAlive.Stop()
		}
		intended := sock.intended
		sock.mu.Unlock()
		sock.conn.Close()

		if !intended {
			sock.sess.events.emit(wire.Event{Kind: wire.EventConnectionLost})
			go sock.sess.reconnect(sock)
		}
	})
}

// reconnect re-dials until it succeeds, then rejoins the room the
// session was in. There is no attempt cap; the session keeps trying as
// long as it lives.
func (s *Session) reconnect(old *socket) {
	s.mu.Lock()
	if s.sock == old {
		s.sock = nil
	}
	s.mu.Unlock()

	delay := s.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	for attempt := 1; ; attempt++ {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		conn, err := s.dialer.Dial(s.ctx, s.socketURL())
		if err != nil {
			log.Warn().Str("module", "socket").Int("attempt", attempt).Err(err).Msg("reconnect failed")
			continue
		}
		sock := newSocket(s, conn)

		s.mu.Lock()
		s.sock = sock
		slug := s.roomSlug
		s.mu.Unlock()

		log.Info().Str("module", "socket").Int("attempt", attempt).Msg("reconnected")
		if slug != "" {
			if err := s.Connect(s.ctx, slug); err != nil {
				log.Error().Str("module", "session").Str("slug", slug).Err(err).Msg("rejoin failed")
			}
		}
		return
	}
}
