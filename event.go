package posthog

import (
	"time"

	"github.com/google/uuid"
)

// Version is the SDK version reported in $lib_version.
const Version = "0.4.0"

const (
	libName   = "posthog-go"
	userAgent = libName + "/" + Version
)

// Well-known event names.
const (
	EventPageview = "$pageview"
	EventIdentify = "$identify"
)

// Well-known property keys.
const (
	PropCurrentURL     = "$current_url"
	PropPathname       = "$pathname"
	PropReferrer       = "$referrer"
	PropLib            = "$lib"
	PropLibVersion     = "$lib_version"
	PropAnonDistinctID = "$anon_distinct_id"
	PropSet            = "$set"
)

// Properties is the property bag attached to an event.
type Properties map[string]any

// Set sets a property and returns the bag for chaining.
func (p Properties) Set(key string, value any) Properties {
	p[key] = value
	return p
}

// merged returns a new bag holding base overlaid with p.
func (p Properties) merged(base Properties) Properties {
	out := make(Properties, len(base)+len(p))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}

// captureEvent is a single event in the batch wire format.
type captureEvent struct {
	UUID       string     `json:"uuid"`
	Event      string     `json:"event"`
	DistinctID string     `json:"distinct_id"`
	Properties Properties `json:"properties,omitempty"`
	Timestamp  string     `json:"timestamp"`
}

// batchPayload is the body of POST /batch/.
type batchPayload struct {
	APIKey string         `json:"api_key"`
	Batch  []captureEvent `json:"batch"`
}

// batchResponse is the body returned by /batch/.
type batchResponse struct {
	Status int `json:"status"`
}

// newEvent stamps an event with a time-ordered uuid and the current time.
func newEvent(name, distinctID string, props Properties, now time.Time) captureEvent {
	return captureEvent{
		UUID:       newEventID(),
		Event:      name,
		DistinctID: distinctID,
		Properties: props,
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
	}
}

// newEventID returns a UUIDv7, falling back to a random v4 if the clock
// sequence cannot be produced.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// newAnonymousID returns a fresh anonymous distinct ID.
func newAnonymousID() string {
	return newEventID()
}
