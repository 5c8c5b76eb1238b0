package posthog

import (
	"context"
	"time"
)

// queueEvent builds an event for the current identity and adds it to the
// pending queue. A full batch is handed to the batch processor; if its queue
// is also full the batch is sent from a tracked background goroutine.
func (c *Client) queueEvent(ctx context.Context, name string, props Properties) error {
	if ctx == nil {
		ctx = context.Background()
	}

	events, err := c.addEventToQueue(name, props)
	if err != nil {
		return err
	}

	if c.config.Metrics != nil {
		c.config.Metrics.IncrementCounter("posthog.events.queued", 1)
	}
	c.logDebug("event queued", "event", name)

	if len(events) > 0 {
		select {
		case c.batchQueue <- batchRequest{events: events, ctx: ctx}:
		default:
			c.handleQueueFull(ctx, events)
		}
	}

	return nil
}

// addEventToQueue atomically adds an event and returns events to flush if
// the batch is full.
func (c *Client) addEventToQueue(name string, props Properties) ([]captureEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	merged := props.merged(c.superProps)
	merged[PropLib] = libName
	merged[PropLibVersion] = Version

	c.pendingEvents = append(c.pendingEvents, newEvent(name, c.distinctID, merged, time.Now()))

	if c.config.Metrics != nil {
		c.config.Metrics.SetGauge("posthog.pending_events", float64(len(c.pendingEvents)))
	}

	if len(c.pendingEvents) >= c.config.BatchSize {
		events := c.pendingEvents
		c.pendingEvents = make([]captureEvent, 0, c.config.BatchSize)
		return events, nil
	}

	return nil, nil
}

// handleQueueFull sends a batch from a tracked goroutine with its own timeout.
func (c *Client) handleQueueFull(ctx context.Context, events []captureEvent) {
	c.logf("batch queue full, sending %d events in background goroutine", len(events))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultBackgroundSendTimeout)
		defer cancel()

		if err := c.sendBatch(sendCtx, events); err != nil {
			c.handleError(err)
		}
	}()
}
