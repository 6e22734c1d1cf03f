package broadcast

import (
	"context"
	"time"
)

// EventType names a sync notification sent to display clients
type EventType string

const (
	EventHello           EventType = "HELLO"
	EventPresenceChanged EventType = "PRESENCE_CHANGED"
	EventActivityAdded   EventType = "ACTIVITY_ADDED"
	EventFeedCleared     EventType = "FEED_CLEARED"
)

// Event is a change notification. Clients treat it as a hint and re-fetch
// the feed and the presence summary.
type Event struct {
	Type      EventType `json:"type"`
	StudentID string    `json:"student_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Action    string    `json:"action,omitempty"`
	Deleted   int64     `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Seq increases by one per event emitted by this process
	Seq uint64 `json:"seq"`
	// PollIntervalSeconds is only set on HELLO
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`
}

// Notifier is what writers call after a change has committed
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
