package posthog

import (
	"context"
	"time"
)

// batchRequest represents a batch of events to be sent.
type batchRequest struct {
	events []captureEvent
	ctx    context.Context
}

// batchProcessor processes batch requests from the queue.
// On drainSignal it sends everything still pending and closes drainComplete.
func (c *Client) batchProcessor() {
	defer c.wg.Done()
	defer close(c.drainComplete)

	for {
		select {
		case <-c.drainSignal:
			c.drainAllEvents()
			return

		case <-c.ctx.Done():
			c.logf("batch processor context cancelled without drain signal")
			return

		case req := <-c.batchQueue:
			c.processBatchRequest(req)
		}
	}
}

// processBatchRequest handles sending a single batch request.
func (c *Client) processBatchRequest(req batchRequest) {
	start := time.Now()

	ctx := req.ctx
	if ctx == nil || ctx.Err() != nil {
		// The caller's context is gone; the batch still goes out.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultBackgroundSendTimeout)
		defer cancel()
		if c.config.Metrics != nil {
			c.config.Metrics.IncrementCounter("posthog.batch.context_cancelled", 1)
		}
	}

	if err := c.sendBatch(ctx, req.events); err != nil {
		c.handleError(err)
	}

	if c.config.Metrics != nil {
		c.config.Metrics.RecordDuration("posthog.batch.duration", time.Since(start))
	}
}

// sendBatch sends a batch of events to the API.
func (c *Client) sendBatch(ctx context.Context, events []captureEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	payload := &batchPayload{
		APIKey: c.config.APIKey,
		Batch:  events,
	}

	var resp batchResponse
	err := c.http.post(ctx, endpointBatch, nil, payload, &resp)

	if c.config.OnBatchFlushed != nil {
		c.config.OnBatchFlushed(BatchResult{
			EventCount: len(events),
			Success:    err == nil,
			Error:      err,
			Duration:   time.Since(start),
		})
	}

	if err != nil {
		return err
	}

	c.logDebug("batch sent", "events", len(events), "duration", time.Since(start))
	if c.config.Metrics != nil {
		c.config.Metrics.IncrementCounter("posthog.batch.sent", 1)
		c.config.Metrics.IncrementCounter("posthog.events.sent", int64(len(events)))
	}

	return nil
}
