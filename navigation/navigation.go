// Package navigation delivers "navigation completed" notifications from a
// router to interested subscribers.
package navigation

import (
	"sync"
	"time"
)

// Event describes a completed navigation.
type Event struct {
	// URL is the full URL of the page navigated to.
	URL string
	// Path is the path component of URL.
	Path string
	// Referrer is the page navigated from, if known.
	Referrer string
	// At is when the navigation completed.
	At time.Time
}

// Handler receives navigation events.
type Handler func(Event)

// Source is anything navigation handlers can subscribe to.
type Source interface {
	Subscribe(h Handler) (unsubscribe func())
}

var _ Source = (*Emitter)(nil)

type subscription struct {
	h Handler
}

// Emitter fans navigation events out to subscribers. Emit calls are
// serialized, so every subscriber sees events in emission order.
// The zero value is ready to use.
type Emitter struct {
	emitMu sync.Mutex

	mu   sync.RWMutex
	subs []*subscription
}

// NewEmitter creates an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers h and returns a function that removes it.
// The returned function may be called any number of times.
func (e *Emitter) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}

	sub := &subscription{h: h}

	e.mu.Lock()
	e.subs = append(e.subs, sub)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(sub) })
	}
}

func (e *Emitter) remove(sub *subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s == sub {
			// Copy so a snapshot held by Emit is never modified.
			next := make([]*subscription, 0, len(e.subs)-1)
			next = append(next, e.subs[:i]...)
			e.subs = append(next, e.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev synchronously to every current subscriber.
// A zero At is set to the current time.
func (e *Emitter) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.RLock()
	subs := e.subs
	e.mu.RUnlock()

	for _, s := range subs {
		s.h(ev)
	}
}

// Len returns the number of current subscribers.
func (e *Emitter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
