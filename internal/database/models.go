package database

import (
	"time"
)

// SessionRecord binds a UI session to its selected device. The session ID
// is a UUID issued when the session cookie is first set.
type SessionRecord struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DeviceID   int       `gorm:"index" json:"device_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastSeenAt time.Time `gorm:"index" json:"last_seen_at"`
}

// EventRecord persists one bus event for the event history endpoints.
// Data holds the event payload as JSON.
type EventRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"index" json:"type"`
	Source    string    `gorm:"index" json:"source"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      string    `json:"data"`
	Priority  int       `json:"priority"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
