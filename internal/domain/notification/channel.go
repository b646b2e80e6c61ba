package notification

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventConnected    EventType = "connected"
	EventPing         EventType = "ping"
	EventNotification EventType = "notification"
)

// Event is one server-to-client message on a push channel. Clients ignore
// types they do not know.
type Event struct {
	Type      EventType     `json:"type"`
	Message   string        `json:"message,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Data      *Notification `json:"data,omitempty"`
}

func ConnectedEvent() Event {
	return Event{Type: EventConnected, Message: "Connected to notification stream"}
}

func PingEvent(at time.Time) Event {
	return Event{Type: EventPing, Timestamp: at.UnixMilli()}
}

func NotificationEvent(n Notification) Event {
	return Event{Type: EventNotification, Data: &n}
}

// Channel is a live server-push connection owned by one identity.
// ID is unique per connection instance and is what the registry compares
// on unregister.
type Channel interface {
	ID() uuid.UUID
	Identity() string
	Send(ev Event) error
	// Done is closed once the channel is closed or the transport failed.
	Done() <-chan struct{}
	Close()
}
