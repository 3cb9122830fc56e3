package session

import (
	"sync"

	"github.com/jbarney86/plugged/internal/wire"
)

// Handler observes session events. Handlers run synchronously on the
// dispatch goroutine, in registration order, so they see events in the
// exact order the frames arrived; a slow handler delays the session.
type Handler func(wire.Event)

// emitter is the session's publish-subscribe surface. The session
// holds one by composition; it is not an inheritable base.
type emitter struct {
	mu       sync.RWMutex
	handlers map[wire.Kind][]Handler
	all      []Handler
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[wire.Kind][]Handler)}
}

func (e *emitter) on(kind wire.Kind, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[kind] = append(e.handlers[kind], h)
}

func (e *emitter) onAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

func (e *emitter) emit(ev wire.Event) {
	e.mu.RLock()
	kindHandlers := e.handlers[ev.Kind]
	allHandlers := e.all
	e.mu.RUnlock()
	for _, h := range kindHandlers {
		h(ev)
	}
	for _, h := range allHandlers {
		h(ev)
	}
}
