package bootstrap

import (
	"context"
	"sync"
	"sync/atomic"

	posthog "github.com/jdziat/posthog-go"
)

type clientRef struct {
	client posthog.Analytics
}

// Store holds the analytics client shared by the whole application.
// A Provider is its only writer; any number of goroutines may read it.
type Store struct {
	ref       atomic.Pointer[clientRef]
	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{ready: make(chan struct{})}
}

// Client returns the published client, or nil if none has been published.
func (s *Store) Client() posthog.Analytics {
	ref := s.ref.Load()
	if ref == nil {
		return nil
	}
	return ref.client
}

// Publish makes client visible to readers, replacing any earlier client.
// A replaced client that owns background work is shut down before Publish
// returns. Publishing nil is ignored.
func (s *Store) Publish(client posthog.Analytics) bool {
	if client == nil {
		return false
	}
	prev := s.ref.Swap(&clientRef{client: client})
	s.readyOnce.Do(func() { close(s.ready) })

	if prev != nil && prev.client != client {
		if sd, ok := prev.client.(posthog.Shutdowner); ok {
			_ = sd.Shutdown(context.Background())
		}
	}
	return true
}

// Ready is closed once the first client has been published.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until a client is published or ctx is done.
func (s *Store) Wait(ctx context.Context) (posthog.Analytics, error) {
	select {
	case <-s.ready:
		return s.Client(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the published client down if it owns background work.
func (s *Store) Close(ctx context.Context) error {
	if sd, ok := s.Client().(posthog.Shutdowner); ok {
		return sd.Shutdown(ctx)
	}
	return nil
}

type storeKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the Store carried by ctx.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeKey{}).(*Store)
	return s, ok && s != nil
}

// ClientFromContext returns the client published in the Store carried by
// ctx, or nil.
func ClientFromContext(ctx context.Context) posthog.Analytics {
	s, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return s.Client()
}
