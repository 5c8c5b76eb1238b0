package posthog

import (
	"encoding/json"
	"net/http"
	"time"
)

// ClientStats is a point-in-time view of a client.
type ClientStats struct {
	State       string `json:"state"`
	Uptime      string `json:"uptime"`
	UptimeNanos int64  `json:"uptime_nanos"`
	Loaded      bool   `json:"loaded"`
	Debug       bool   `json:"debug"`
	DistinctID  string `json:"distinct_id"`

	// Queue metrics
	PendingEvents    int     `json:"pending_events"`
	QueuedBatches    int     `json:"queued_batches"`
	QueueCapacity    int     `json:"queue_capacity"`
	QueueUtilization float64 `json:"queue_utilization"`

	FeatureFlags int `json:"feature_flags"`
}

// Uptime returns how long ago the client was created.
func (c *Client) Uptime() time.Duration {
	return time.Since(c.startedAt)
}

// Stats returns a snapshot of the client's state. It is safe to call
// concurrently.
//
// Example:
//
//	stats := client.Stats()
//	log.Printf("queue: %d pending, %.1f%% full",
//	    stats.PendingEvents, stats.QueueUtilization*100)
func (c *Client) Stats() ClientStats {
	uptime := c.Uptime()
	stats := ClientStats{
		State:       c.State().String(),
		Uptime:      uptime.String(),
		UptimeNanos: uptime.Nanoseconds(),
		Debug:       c.IsDebug(),
	}

	select {
	case <-c.loaded:
		stats.Loaded = true
	default:
	}

	c.mu.Lock()
	stats.PendingEvents = len(c.pendingEvents)
	stats.DistinctID = c.distinctID
	c.mu.Unlock()

	stats.QueuedBatches = len(c.batchQueue)
	stats.QueueCapacity = c.config.BatchSize * c.config.BatchQueueSize
	if stats.QueueCapacity > 0 {
		queued := stats.PendingEvents + stats.QueuedBatches*c.config.BatchSize
		stats.QueueUtilization = float64(queued) / float64(stats.QueueCapacity)
	}

	c.flagsMu.RLock()
	stats.FeatureFlags = len(c.flags)
	c.flagsMu.RUnlock()

	return stats
}

// StatsHandler returns an http.Handler that serves Stats as JSON.
//
//	r.Handle("/debug/posthog", client.StatsHandler())
func (c *Client) StatsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(c.Stats()); err != nil {
			http.Error(w, "Failed to encode stats", http.StatusInternalServerError)
		}
	})
}

// HealthHandler returns an http.Handler for health checks.
// It responds 200 while the client is active and 503 once it is shutting
// down or closed.
func (c *Client) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := c.State()
		response := struct {
			Status string `json:"status"`
			State  string `json:"state"`
		}{
			Status: "healthy",
			State:  state.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if state != ClientStateActive {
			response.Status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}
