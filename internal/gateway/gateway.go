// Package gateway executes REST commands through a bounded queue. The
// service trips its flood protection when too many requests land at
// once, so at most five are in flight and a watcher drains the backlog
// on a fixed interval instead of bursting it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultConcurrency = 5
	defaultWatchPeriod = 5 * time.Second
	defaultBackoff     = 5 * time.Second
	maxRetries         = 2

	userAgent = "PlugClient/1.0 (GO)"
)

// ErrDiscarded is returned to waiters whose queued request was flushed
// away before it ran.
var ErrDiscarded = errors.New("gateway: request discarded")

// Error is the {code, message} failure shape of the REST surface.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: request failed: %d %s", e.Code, e.Message)
}

// IsClientError reports whether the failure is a 4xx, which is never
// retried.
func (e *Error) IsClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

type result struct {
	data json.RawMessage
	err  error
}

type entry struct {
	method  string
	url     string
	body    []byte
	extract bool
	flush   bool
	tries   int
	ctx     context.Context
	done    chan result
}

// Gateway is the queued HTTP command executor. It owns the cookie jar
// carrying the authenticated session.
type Gateway struct {
	client      *http.Client
	concurrency int
	backoff     time.Duration

	mu     sync.Mutex
	queue  []*entry
	active int
	closed bool

	stopWatcher context.CancelFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClient substitutes the HTTP client (tests).
func WithClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

// WithConcurrency overrides the in-flight ceiling.
func WithConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithBackoff overrides the 5xx retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.backoff = d
		}
	}
}

// New returns a gateway with a fresh cookie jar and a running queue
// watcher. Call Close to stop the watcher.
func New(opts ...Option) (*Gateway, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	g := &Gateway{
		client:      &http.Client{Jar: jar, Timeout: 30 * time.Second},
		concurrency: defaultConcurrency,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client.Jar == nil {
		g.client.Jar = jar
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.stopWatcher = cancel
	go g.watch(ctx)
	return g, nil
}

// Do queues a JSON request and waits for its outcome. 5xx responses
// are retried up to two times with a fixed backoff; 4xx responses fail
// immediately with *Error. extract unwraps a single-element data array
// into its element.
func (g *Gateway) Do(ctx context.Context, method, url string, body any, extract bool) (json.RawMessage, error) {
	return g.submit(ctx, method, url, body, extract, false)
}

// DoFlush bypasses the queue and retry budget: fire once, report once.
func (g *Gateway) DoFlush(ctx context.Context, method, url string, body any, extract bool) (json.RawMessage, error) {
	return g.submit(ctx, method, url, body, extract, true)
}

func (g *Gateway) submit(ctx context.Context, method, url string, body any, extract, flush bool) (json.RawMessage, error) {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("gateway: encode body: %w", err)
		}
	}
	e := &entry{
		method:  method,
		url:     url,
		body:    encoded,
		extract: extract,
		flush:   flush,
		ctx:     ctx,
		done:    make(chan result, 1),
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrDiscarded
	}
	if flush {
		g.active++
		g.mu.Unlock()
		go g.exec(e)
	} else {
		g.queue = append(g.queue, e)
		g.mu.Unlock()
		g.pump()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-e.done:
		return res.data, res.err
	}
}

// GetRaw fetches a page body as-is, outside the JSON envelope. Used
// for the HTML scrapes of the login pipeline.
func (g *Gateway) GetRaw(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gateway: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return string(body), nil
}

// FlushQueue discards every queued (not yet in-flight) request; their
// waiters get ErrDiscarded.
func (g *Gateway) FlushQueue() {
	g.mu.Lock()
	discarded := g.queue
	g.queue = nil
	g.mu.Unlock()
	for _, e := range discarded {
		e.done <- result{err: ErrDiscarded}
	}
}

// Close stops the watcher and discards the backlog. In-flight requests
// run to completion.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()
	g.stopWatcher()
	g.FlushQueue()
}

// pump starts queued entries while in-flight slots are free.
func (g *Gateway) pump() {
	for {
		g.mu.Lock()
		if len(g.queue) == 0 || g.active >= g.concurrency {
			g.mu.Unlock()
			return
		}
		e := g.queue[0]
		g.queue = g.queue[1:]
		g.active++
		g.mu.Unlock()
		go g.exec(e)
	}
}

func (g *Gateway) watch(ctx context.Context) {
	ticker := time.NewTicker(defaultWatchPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.pump()
		}
	}
}

func (g *Gateway) exec(e *entry) {
	data, err := g.roundTrip(e)

	var gerr *Error
	retryable := err != nil && errors.As(err, &gerr) && gerr.Code >= 500
	if retryable && !e.flush && e.tries < maxRetries {
		e.tries++
		log.Warn().Str("module", "gateway").Str("url", e.url).Int("try", e.tries).Msg("server error, retrying")
		time.AfterFunc(g.backoff, func() {
			g.mu.Lock()
			if g.closed {
				g.mu.Unlock()
				e.done <- result{err: ErrDiscarded}
				return
			}
			g.queue = append(g.queue, e)
			g.mu.Unlock()
			g.pump()
		})
		g.release()
		return
	}

	e.done <- result{data: data, err: err}
	g.release()
}

func (g *Gateway) release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	g.pump()
}

// envelope is the REST response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (g *Gateway) roundTrip(e *entry) (json.RawMessage, error) {
	var reader io.Reader
	if e.body != nil {
		reader = bytes.NewReader(e.body)
	}
	req, err := http.NewRequestWithContext(e.ctx, e.method, e.url, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript; q=0.1, */*; q=0.5")
	if e.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &Error{Code: 0, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	var env envelope
	data := json.RawMessage(body)
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		data = env.Data
	}
	if e.extract {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err == nil && len(arr) == 1 {
			data = arr[0]
		}
	}
	return data, nil
}

// errorMessage digs the human-readable message out of an error body;
// the service puts it in data[0].
func errorMessage(body []byte) string {
	var env struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data[0]
	}
	return string(body)
}
