package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventBus defines the interface for the event bus system
type EventBus interface {
	// Publish publishes an event to the event bus
	Publish(ctx context.Context, event Event) error

	// PublishAsync publishes an event asynchronously (non-blocking)
	PublishAsync(event Event) error

	// Subscribe subscribes to events matching the filter
	Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (*Subscription, error)

	// Unsubscribe removes a subscription
	Unsubscribe(subscriptionID string) error

	// GetEvents returns stored events based on filter and pagination
	GetEvents(filter EventFilter, limit, offset int) ([]Event, int64, error)

	// GetStats returns event bus statistics
	GetStats() EventStats

	// Start starts the event bus
	Start(ctx context.Context) error

	// Stop stops the event bus gracefully
	Stop(ctx context.Context) error

	// Health returns the health status of the event bus
	Health() error
}

// EventLogger defines the logging interface for events
type EventLogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// EventStorage defines the interface for persisting events
type EventStorage interface {
	// Store stores an event
	Store(ctx context.Context, event Event) error

	// Get retrieves events based on filter
	Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error)

	// Delete removes events older than the specified duration
	Delete(ctx context.Context, olderThan time.Duration) error

	// Count returns the total number of stored events
	Count(ctx context.Context) (int64, error)

	// Close closes the storage
	Close() error
}

// EventMetrics defines the interface for event metrics collection
type EventMetrics interface {
	RecordEvent(event Event)
	RecordSubscription(subscription *Subscription)
	RecordUnsubscription(subscriptionID string)
	GetMetrics() EventStats
}

// NewEvent creates a new event with default values
func NewEvent(eventType EventType, source string, title string, message string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Title:     title,
		Message:   message,
		Data:      make(map[string]interface{}),
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// NewEventWithData creates a new event with structured data
func NewEventWithData(eventType EventType, source string, title string, message string, data map[string]interface{}) Event {
	event := NewEvent(eventType, source, title, message)
	event.Data = data
	return event
}

// NewEventWithPayload creates a new event carrying a typed payload
// struct. The payload is flattened into the event's data map through its
// JSON tags, so numeric fields arrive as json numbers on the wire and in
// handlers alike.
func NewEventWithPayload(eventType EventType, source string, title string, message string, payload interface{}) Event {
	event := NewEvent(eventType, source, title, message)
	raw, err := json.Marshal(payload)
	if err != nil {
		return event
	}
	if err := json.Unmarshal(raw, &event.Data); err != nil {
		event.Data = make(map[string]interface{})
	}
	return event
}

// NewSystemEvent creates a system event
func NewSystemEvent(eventType EventType, title string, message string) Event {
	return NewEvent(eventType, "system", title, message)
}

// NewModuleEvent creates an event attributed to a module
func NewModuleEvent(eventType EventType, moduleID string, title string, message string) Event {
	return NewEvent(eventType, "module:"+moduleID, title, message)
}

// MatchesFilter checks if an event matches the given filter
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if event.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.Priority != nil && event.Priority < *filter.Priority {
		return false
	}

	return true
}
