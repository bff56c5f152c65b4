// Package events provides the event bus the modules publish state
// changes on. Consumers are the SSE/websocket streams and the event
// history endpoints.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Device events
	EventDeviceSelected    EventType = "device.selected"
	EventDeviceProbed      EventType = "device.probed"
	EventDeviceUnreachable EventType = "device.unreachable"

	// Playback events
	EventPlaybackStarted EventType = "playback.started"
	EventPlaybackStopped EventType = "playback.stopped"

	// Preference events
	EventPreferencesUpdated  EventType = "preferences.updated"
	EventPreferencesReloaded EventType = "preferences.reloaded"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"

	// General events
	EventError   EventType = "error"
	EventWarning EventType = "warning"
	EventInfo    EventType = "info"
)

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"` // system, module:id, session:id
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Priority  EventPriority          `json:"priority"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter represents filters for event subscriptions
type EventFilter struct {
	Types    []EventType    `json:"types,omitempty"`
	Sources  []string       `json:"sources,omitempty"`
	Priority *EventPriority `json:"priority,omitempty"`
}

// Subscription represents an event subscription
type Subscription struct {
	ID           string       `json:"id"`
	Filter       EventFilter  `json:"filter"`
	Handler      EventHandler `json:"-"`
	Subscriber   string       `json:"subscriber"`
	Created      time.Time    `json:"created"`
	TriggerCount int64        `json:"trigger_count"`
}

// EventStats represents statistics about events
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	EventsBySource      map[string]int64 `json:"events_by_source"`
	RecentEvents        []Event          `json:"recent_events"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// EventBusConfig represents configuration for the event bus
type EventBusConfig struct {
	BufferSize        int           `json:"buffer_size"`
	MaxEventAge       time.Duration `json:"max_event_age"`
	EnablePersistence bool          `json:"enable_persistence"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize:        256,
		MaxEventAge:       24 * time.Hour,
		EnablePersistence: true,
	}
}

// DeviceSelectedData is the payload of device.selected events.
type DeviceSelectedData struct {
	SessionID string `json:"session_id"`
	DeviceID  int    `json:"device_id"`
	Previous  int    `json:"previous_device_id,omitempty"`
}

// DeviceProbedData is the payload of device.probed events.
type DeviceProbedData struct {
	DeviceID int    `json:"device_id"`
	Version  string `json:"version"`
}

// PlaybackTransitionData is the payload of playback.started and
// playback.stopped events.
type PlaybackTransitionData struct {
	DeviceID  int    `json:"device_id"`
	MediaType string `json:"media_type,omitempty"`
	Title     string `json:"title,omitempty"`
}
