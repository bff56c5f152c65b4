package events

import (
	"sync"
)

// basicEventMetrics implements EventMetrics.
type basicEventMetrics struct {
	mu              sync.RWMutex
	totalEvents     int64
	eventsByType    map[string]int64
	eventsBySource  map[string]int64
	subscriptions   int64
	recentEvents    []Event
	maxRecentEvents int
}

// NewBasicEventMetrics creates a new basic event metrics instance
func NewBasicEventMetrics() EventMetrics {
	return &basicEventMetrics{
		eventsByType:    make(map[string]int64),
		eventsBySource:  make(map[string]int64),
		recentEvents:    make([]Event, 0),
		maxRecentEvents: 100,
	}
}

// RecordEvent records an event for metrics
func (m *basicEventMetrics) RecordEvent(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalEvents++
	m.eventsByType[string(event.Type)]++
	m.eventsBySource[event.Source]++

	m.recentEvents = append(m.recentEvents, event)
	if len(m.recentEvents) > m.maxRecentEvents {
		m.recentEvents = m.recentEvents[1:]
	}
}

// RecordSubscription records a subscription event
func (m *basicEventMetrics) RecordSubscription(subscription *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions++
}

// RecordUnsubscription records an unsubscription event
func (m *basicEventMetrics) RecordUnsubscription(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscriptions > 0 {
		m.subscriptions--
	}
}

// GetMetrics returns current metrics
func (m *basicEventMetrics) GetMetrics() EventStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]int64, len(m.eventsByType))
	for k, v := range m.eventsByType {
		byType[k] = v
	}
	bySource := make(map[string]int64, len(m.eventsBySource))
	for k, v := range m.eventsBySource {
		bySource[k] = v
	}
	recent := make([]Event, len(m.recentEvents))
	copy(recent, m.recentEvents)

	return EventStats{
		TotalEvents:         m.totalEvents,
		EventsByType:        byType,
		EventsBySource:      bySource,
		RecentEvents:        recent,
		ActiveSubscriptions: int(m.subscriptions),
	}
}
