package posthog

import (
	"context"
	"net/url"
	"time"
)

// decideRequest is the body of POST /decide/.
type decideRequest struct {
	APIKey     string `json:"api_key"`
	Token      string `json:"token"`
	DistinctID string `json:"distinct_id"`
}

// decideResponse is the subset of the /decide/ response the client uses.
type decideResponse struct {
	FeatureFlags              map[string]any `json:"featureFlags"`
	FeatureFlagPayloads       map[string]any `json:"featureFlagPayloads"`
	ErrorsWhileComputingFlags bool           `json:"errorsWhileComputingFlags"`
}

// ReloadFeatureFlags fetches the flags for the current distinct ID and
// replaces the cached set.
func (c *Client) ReloadFeatureFlags(ctx context.Context) error {
	start := time.Now()
	distinctID := c.DistinctID()

	var resp decideResponse
	err := c.http.post(ctx, endpointDecide, url.Values{"v": {"3"}}, &decideRequest{
		APIKey:     c.config.APIKey,
		Token:      c.config.APIKey,
		DistinctID: distinctID,
	}, &resp)

	if c.config.Metrics != nil {
		c.config.Metrics.RecordDuration("posthog.decide.duration", time.Since(start))
	}
	if err != nil {
		return err
	}

	flags := make(map[string]any, len(resp.FeatureFlags))
	for k, v := range resp.FeatureFlags {
		flags[k] = v
	}

	c.flagsMu.Lock()
	c.flags = flags
	c.flagsMu.Unlock()

	if resp.ErrorsWhileComputingFlags {
		c.logWarn("server reported errors while computing flags", "distinct_id", distinctID)
	}
	c.logDebug("feature flags loaded", "count", len(flags))
	return nil
}

// FeatureFlag returns the raw value of a flag: a bool, or the variant string
// for multivariate flags. ok is false if the flag is unknown.
func (c *Client) FeatureFlag(key string) (value any, ok bool) {
	c.flagsMu.RLock()
	defer c.flagsMu.RUnlock()
	value, ok = c.flags[key]
	return value, ok
}

// IsFeatureEnabled reports whether a flag is on. A multivariate flag is on
// when it resolved to a non-empty variant.
func (c *Client) IsFeatureEnabled(key string) bool {
	value, ok := c.FeatureFlag(key)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	default:
		return false
	}
}

// FeatureFlags returns a copy of every cached flag.
func (c *Client) FeatureFlags() map[string]any {
	c.flagsMu.RLock()
	defer c.flagsMu.RUnlock()
	out := make(map[string]any, len(c.flags))
	for k, v := range c.flags {
		out[k] = v
	}
	return out
}
