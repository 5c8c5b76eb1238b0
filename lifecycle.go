package posthog

import (
	"context"
	"time"
)

// ClientState represents the current state of the client lifecycle.
type ClientState int32

const (
	// ClientStateActive indicates the client is active and accepting events.
	ClientStateActive ClientState = iota

	// ClientStateShuttingDown indicates the client is shutting down.
	ClientStateShuttingDown

	// ClientStateClosed indicates the client has been closed.
	ClientStateClosed
)

// String returns a string representation of the client state.
func (s ClientState) String() string {
	switch s {
	case ClientStateActive:
		return "active"
	case ClientStateShuttingDown:
		return "shutting_down"
	case ClientStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// State returns the current client state.
func (c *Client) State() ClientState {
	return ClientState(c.state.Load())
}

// Shutdown flushes pending events and closes the client gracefully.
//
// The shutdown process:
//  1. Stop accepting new events (mark closed)
//  2. Stop the flush loop
//  3. Signal the batch processor to drain pending and queued events
//  4. Wait for the drain to complete (or time out)
//  5. Cancel the client context and wait for every goroutine
//
// Returns a ShutdownError if the shutdown times out.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(ClientStateActive), int32(ClientStateShuttingDown)) {
		return ErrClientClosed
	}
	defer c.state.Store(int32(ClientStateClosed))

	if err := c.markClosed(); err != nil {
		return err
	}

	close(c.stopFlush)
	// Drain before cancelling so in-flight sends can complete.
	close(c.drainSignal)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, c.config.ShutdownTimeout)
	defer shutdownCancel()

	drained := false
	select {
	case <-c.drainComplete:
		drained = true
		c.logf("batch processor drain complete")
	case <-shutdownCtx.Done():
		c.logf("drain timeout, forcing shutdown")
	}

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if c.config.Metrics != nil {
			if drained {
				c.config.Metrics.IncrementCounter("posthog.shutdown.success", 1)
			} else {
				c.config.Metrics.IncrementCounter("posthog.shutdown.drain_timeout", 1)
			}
		}
		c.logDebug("shutdown complete", "drained", drained)
		return nil

	case <-shutdownCtx.Done():
		potentiallyLost := len(c.batchQueue) * c.config.BatchSize
		c.logError("shutdown timeout", "potentially_lost_events", potentiallyLost)

		if c.config.Metrics != nil {
			c.config.Metrics.IncrementCounter("posthog.shutdown.timeout", 1)
		}

		return &ShutdownError{
			Cause:         shutdownCtx.Err(),
			PendingEvents: potentiallyLost,
			Message:       "timeout waiting for background goroutines",
		}
	}
}

// Close is an alias for Shutdown.
func (c *Client) Close(ctx context.Context) error {
	return c.Shutdown(ctx)
}

// Flush sends all pending events to the API.
func (c *Client) Flush(ctx context.Context) error {
	events, err := c.extractPendingEvents()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	return c.sendBatch(ctx, events)
}

// extractPendingEvents atomically extracts and clears pending events.
func (c *Client) extractPendingEvents() ([]captureEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if len(c.pendingEvents) == 0 {
		return nil, nil
	}

	events := c.pendingEvents
	c.pendingEvents = make([]captureEvent, 0, c.config.BatchSize)
	return events, nil
}

// markClosed atomically marks the client as closed.
func (c *Client) markClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	c.closed = true
	return nil
}

// drainPendingEvents atomically drains all pending events during shutdown.
func (c *Client) drainPendingEvents() []captureEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := c.pendingEvents
	c.pendingEvents = nil
	return events
}

// drainAllEvents drains all pending events and queued batches during shutdown.
// It uses a fresh context since the client context may be cancelled.
func (c *Client) drainAllEvents() {
	drainCtx, cancel := context.WithTimeout(context.Background(), c.config.ShutdownTimeout)
	defer cancel()

	// Queued batches were formed first, so they go out first.
	drained := 0
queue:
	for {
		select {
		case req := <-c.batchQueue:
			if err := c.sendBatch(drainCtx, req.events); err != nil {
				c.handleError(err)
			}
			drained++
		case <-drainCtx.Done():
			c.logf("drain timeout, %d batches drained, some may be lost", drained)
			return
		default:
			break queue
		}
	}

	if pending := c.drainPendingEvents(); len(pending) > 0 {
		c.logf("draining %d pending events during shutdown", len(pending))
		if err := c.sendBatch(drainCtx, pending); err != nil {
			c.handleError(err)
		}
	}
}

// flushLoop periodically flushes pending events.
func (c *Client) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopFlush:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(c.ctx); err != nil && err != ErrClientClosed {
				c.handleError(err)
			}
		}
	}
}
