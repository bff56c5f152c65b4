package sessionmodule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kodiview/kodiview/internal/database"
	"gorm.io/gorm"
)

// SessionStore maps an opaque session key to the device the session has
// selected. Implementations must be safe for concurrent use.
type SessionStore interface {
	Get(key string) (deviceID int, found bool, err error)
	Put(key string, deviceID int) error
	Delete(key string) error
}

// memoryStore keeps session bindings in a map. Used when the database is
// unavailable and as the fixture store in tests.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]int
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() SessionStore {
	return &memoryStore{sessions: make(map[string]int)}
}

func (s *memoryStore) Get(key string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deviceID, found := s.sessions[key]
	return deviceID, found, nil
}

func (s *memoryStore) Put(key string, deviceID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = deviceID
	return nil
}

func (s *memoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// gormStore persists session bindings so device selections survive a
// restart.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed session store.
func NewGormStore(db *gorm.DB) SessionStore {
	return &gormStore{db: db}
}

func (s *gormStore) Get(key string) (int, bool, error) {
	var record database.SessionRecord
	err := s.db.Where("id = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load session: %w", err)
	}
	return record.DeviceID, true, nil
}

func (s *gormStore) Put(key string, deviceID int) error {
	now := time.Now()
	result := s.db.Model(&database.SessionRecord{}).
		Where("id = ?", key).
		Updates(map[string]interface{}{
			"device_id":    deviceID,
			"last_seen_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	record := &database.SessionRecord{
		ID:         key,
		DeviceID:   deviceID,
		LastSeenAt: now,
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *gormStore) Delete(key string) error {
	if err := s.db.Where("id = ?", key).Delete(&database.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
