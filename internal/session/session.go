// Package session owns the persistent connection lifecycle: the login
// pipeline, the socket handshake and keep-alive, the single-threaded
// dispatch loop applying wire events to the state store, and the typed
// command facade.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jbarney86/plugged/internal/config"
	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/gateway"
	"github.com/jbarney86/plugged/internal/state"
	"github.com/jbarney86/plugged/internal/wire"
)

// loginRetries is the extra-attempt budget for the whole login
// pipeline. Independent of the socket's unlimited reconnect.
const loginRetries = 2

// Credentials authenticates the login pipeline.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

var validate = validator.New()

// Session is one account's connection to one room. Construct per
// connection; there is no shared module state.
type Session struct {
	cfg     *config.Config
	gw      *gateway.Gateway
	store   *state.Store
	events  *emitter
	chat    *chatQueue
	clock   func() time.Time
	dialer  Dialer

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	credentials  Credentials
	authToken    string
	offset       time.Duration // local clock minus server clock at auth
	roomSlug     string
	sock         *socket
	sweepStarted bool

	debugSrv *http.Server
}

// Option configures a Session.
type Option func(*Session)

// WithStoreOptions forwards options to the state store.
func WithStoreOptions(opts ...state.Option) Option {
	return func(s *Session) { s.store = state.New(opts...) }
}

// WithDialer substitutes the socket dialer (tests).
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithGateway substitutes the command gateway (tests).
func WithGateway(gw *gateway.Gateway) Option {
	return func(s *Session) { s.gw = gw }
}

// withClock substitutes the time source (tests).
func withClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// New wires a session against the configured service endpoints.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		store:  state.New(state.WithChatCacheSize(cfg.ChatCacheSize), state.WithUserCacheTTL(cfg.UserCacheTTL)),
		events: newEmitter(),
		clock:  time.Now,
		dialer: defaultDialer{},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gw == nil {
		gw, err := gateway.New(
			gateway.WithConcurrency(cfg.GatewayConcurrency),
			gateway.WithBackoff(cfg.RetryBackoff),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		s.gw = gw
	}
	s.chat = newChatQueue(s, cfg.ChatLimit, cfg.ChatThrottle)
	return s, nil
}

// Store exposes the read side of the local state mirror. Returned
// collections are snapshots, never live handles.
func (s *Session) Store() *state.Store { return s.store }

// On registers a handler for one event kind.
func (s *Session) On(kind wire.Kind, h Handler) { s.events.on(kind, h) }

// OnAll registers a handler for every event.
func (s *Session) OnAll(h Handler) { s.events.onAll(h) }

// Authenticated reports whether a login has produced an auth token.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken != ""
}

// serverNow returns the current time corrected to the server's clock,
// in milliseconds. Outbound frames carry this.
func (s *Session) serverNow() int64 {
	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()
	return s.clock().Add(-offset).UnixMilli()
}

// Login runs the CSRF → credentials → token pipeline and opens the
// persistent connection. The whole pipeline is retried up to two extra
// times before failing terminally with ErrLoginFailed.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	if err := validate.Struct(creds); err != nil {
		return fmt.Errorf("%w: email and password are required: %v", ErrInvalidArgument, err)
	}
	s.mu.Lock()
	s.credentials = creds
	s.mu.Unlock()

	var lastErr error
	for try := 0; try <= loginRetries; try++ {
		if try > 0 {
			log.Warn().Str("module", "session").Int("try", try).Err(lastErr).Msg("login pipeline failed, retrying")
		}
		if lastErr = s.runLoginPipeline(ctx, creds); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, lastErr)
	}

	if err := s.openSocket(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := s.RequestSelf(ctx); err != nil {
		log.Warn().Str("module", "session").Err(err).Msg("could not fetch own profile")
	}
	return nil
}

func (s *Session) runLoginPipeline(ctx context.Context, creds Credentials) error {
	csrf, err := s.fetchCSRF(ctx)
	if err != nil {
		return err
	}
	if _, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/auth/login"), map[string]string{
		"csrf":     csrf,
		"email":    creds.Email,
		"password": creds.Password,
	}, false); err != nil {
		return err
	}
	token, serverTime, err := s.fetchAuthToken(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.authToken = token
	s.offset = s.clock().Sub(serverTime)
	s.mu.Unlock()
	return nil
}

// fetchCSRF scrapes the CSRF token from the front page. The page
// embeds it as _csrf="<token>".
func (s *Session) fetchCSRF(ctx context.Context) (string, error) {
	body, err := s.gw.GetRaw(ctx, s.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	token, ok := scrape(body, `_csrf="`)
	if !ok || len(token) != s.cfg.CSRFTokenLength {
		return "", fmt.Errorf("%w: CSRF token not found", ErrProtocol)
	}
	return token, nil
}

// fetchAuthToken scrapes the socket auth token and the server time
// from the authenticated front page (_jm="<token>", _st="<millis>").
// The token has a fixed length per protocol revision; a mismatch means
// the scrape landed somewhere wrong.
func (s *Session) fetchAuthToken(ctx context.Context) (string, time.Time, error) {
	body, err := s.gw.GetRaw(ctx, s.cfg.BaseURL)
	if err != nil {
		return "", time.Time{}, err
	}
	token, ok := scrape(body, `_jm="`)
	if !ok || len(token) != s.cfg.AuthTokenLength {
		return "", time.Time{}, fmt.Errorf("%w: auth token not found or has unexpected length", ErrProtocol)
	}
	stamp, ok := scrape(body, `_st="`)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: server time not found", ErrProtocol)
	}
	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: server time %q is not a timestamp", ErrProtocol, stamp)
	}
	return token, time.UnixMilli(millis), nil
}

// scrape extracts the quote-delimited value following marker.
func scrape(body, marker string) (string, bool) {
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "", false
	}
	rest := body[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// Connect joins a room and installs its snapshot. State is replaced
// atomically only after the stats fetch succeeds; a failed join leaves
// the previous room state untouched.
func (s *Session) Connect(ctx context.Context, slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: room slug is empty", ErrInvalidArgument)
	}
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}

	if _, err := s.gw.Do(ctx, http.MethodPost, s.url("/_/rooms/join"), map[string]string{"slug": slug}, false); err != nil {
		return err
	}
	stats, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/rooms/state"), nil, true)
	if err != nil {
		return err
	}

	snap := wire.DecodeRoom(stats)
	if snap.Meta.Slug == "" {
		snap.Meta.Slug = slug
	}
	s.store.Replace(snap)

	s.mu.Lock()
	s.roomSlug = slug
	startSweep := !s.sweepStarted
	s.sweepStarted = true
	s.mu.Unlock()
	if startSweep {
		s.store.StartSweep(s.ctx, s.cfg.SweepPeriod)
	}

	log.Info().Str("module", "session").Str("slug", slug).Int("population", snap.Meta.Population).Msg("joined room")
	s.events.emit(wire.Event{Kind: wire.EventJoinedRoom, Data: s.store.Meta()})
	return nil
}

// RequestSelf fetches the local user's profile and friend list.
func (s *Session) RequestSelf(ctx context.Context) error {
	data, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/users/me"), nil, true)
	if err != nil {
		return err
	}
	self := wire.DecodeSelf(data)

	if friends, err := s.gw.Do(ctx, http.MethodGet, s.url("/_/friends"), nil, false); err == nil {
		var list []struct {
			ID domain.UserID `json:"id"`
		}
		if json.Unmarshal(friends, &list) == nil {
			for _, f := range list {
				self.Friends = append(self.Friends, f.ID)
			}
		}
	}
	s.store.SetSelf(self)
	return nil
}

// Logout deletes the server session and tears the local one down:
// keep-alive and sweep stop, the socket closes and the gateway backlog
// is discarded before Logout returns.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.gw.Do(ctx, http.MethodDelete, s.url("/_/auth/session"), nil, false)

	s.mu.Lock()
	sock := s.sock
	s.sock = nil
	s.authToken = ""
	s.roomSlug = ""
	s.mu.Unlock()

	s.cancel()
	if sock != nil {
		sock.close()
	}
	s.chat.stop()
	s.store.Reset()
	s.gw.FlushQueue()
	s.stopDebugServer()

	if err != nil {
		return err
	}
	log.Info().Str("module", "session").Msg("logged out")
	return nil
}

func (s *Session) url(path string) string {
	return s.cfg.BaseURL + path
}
