package posthogtest

import (
	"context"
	"sync"

	posthog "github.com/jdziat/posthog-go"
)

var _ posthog.Analytics = (*FakeClient)(nil)

// CaptureCall is one recorded call to FakeClient.Capture.
type CaptureCall struct {
	Event      string
	Properties posthog.Properties
}

// FakeClient is an in-memory posthog.Analytics that records every call.
type FakeClient struct {
	mu       sync.Mutex
	captures []CaptureCall
	debug    int

	// Err, if set, is returned from Capture after recording the call.
	Err error
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Capture implements posthog.Analytics.
func (c *FakeClient) Capture(_ context.Context, event string, props posthog.Properties) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make(posthog.Properties, len(props))
	for k, v := range props {
		copied[k] = v
	}
	c.captures = append(c.captures, CaptureCall{Event: event, Properties: copied})
	return c.Err
}

// Debug implements posthog.Analytics.
func (c *FakeClient) Debug() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug++
}

// Captures returns every recorded capture.
func (c *FakeClient) Captures() []CaptureCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CaptureCall{}, c.captures...)
}

// CaptureCount returns the number of recorded captures.
func (c *FakeClient) CaptureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.captures)
}

// DebugCount returns how many times Debug was called.
func (c *FakeClient) DebugCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debug
}

// InitCall is one recorded call to FakeSDK.Init.
type InitCall struct {
	APIKey string
	Config *posthog.Config
}

// FakeSDK stands in for the analytics library. Init records the resolved
// configuration and runs the loaded hooks with Client on a goroutine, the
// way the real SDK does.
type FakeSDK struct {
	mu     sync.Mutex
	calls  []InitCall
	client *FakeClient
	err    error
	hold   chan struct{}
	wg     sync.WaitGroup
}

// NewFakeSDK creates a FakeSDK whose loaded hooks receive a fresh FakeClient.
func NewFakeSDK() *FakeSDK {
	return &FakeSDK{client: NewFakeClient()}
}

// Init records the call and schedules the loaded hooks.
func (s *FakeSDK) Init(apiKey string, opts ...posthog.ConfigOption) error {
	cfg := posthog.NewConfig(apiKey, opts...)

	s.mu.Lock()
	s.calls = append(s.calls, InitCall{APIKey: apiKey, Config: cfg})
	err, hold, client := s.err, s.hold, s.client
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if hold != nil {
			<-hold
		}
		for _, hook := range cfg.OnLoaded {
			hook(client)
		}
	}()
	return nil
}

// Client returns the FakeClient handed to loaded hooks.
func (s *FakeSDK) Client() *FakeClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// FailWith makes subsequent Init calls return err. Pass nil to recover.
func (s *FakeSDK) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Hold delays the loaded hooks of subsequent Init calls until Release.
func (s *FakeSDK) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold == nil {
		s.hold = make(chan struct{})
	}
}

// Release lets held loaded hooks run.
func (s *FakeSDK) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold != nil {
		close(s.hold)
		s.hold = nil
	}
}

// Wait blocks until every scheduled loaded hook has returned.
func (s *FakeSDK) Wait() {
	s.wg.Wait()
}

// InitCount returns the number of Init calls.
func (s *FakeSDK) InitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Calls returns every recorded Init call.
func (s *FakeSDK) Calls() []InitCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InitCall{}, s.calls...)
}

// LastConfig returns the configuration of the most recent Init call, or nil.
func (s *FakeSDK) LastConfig() *posthog.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1].Config
}
