package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kodiview/kodiview/internal/database"
)

// databaseEventStorage persists events through gorm.
type databaseEventStorage struct {
	db *gorm.DB
}

// NewDatabaseEventStorage creates event storage backed by the shared
// database.
func NewDatabaseEventStorage(db *gorm.DB) EventStorage {
	return &databaseEventStorage{db: db}
}

func toRecord(event Event) (database.EventRecord, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return database.EventRecord{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return database.EventRecord{
		ID:        event.ID,
		Type:      string(event.Type),
		Source:    event.Source,
		Title:     event.Title,
		Message:   event.Message,
		Data:      string(data),
		Priority:  int(event.Priority),
		Timestamp: event.Timestamp,
	}, nil
}

func fromRecord(record database.EventRecord) Event {
	event := Event{
		ID:        record.ID,
		Type:      EventType(record.Type),
		Source:    record.Source,
		Title:     record.Title,
		Message:   record.Message,
		Priority:  EventPriority(record.Priority),
		Timestamp: record.Timestamp,
		Data:      make(map[string]interface{}),
	}
	if record.Data != "" {
		// malformed stored data degrades to an empty payload
		_ = json.Unmarshal([]byte(record.Data), &event.Data)
	}
	return event
}

func (s *databaseEventStorage) Store(ctx context.Context, event Event) error {
	record, err := toRecord(event)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

func (s *databaseEventStorage) Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error) {
	query := s.db.WithContext(ctx).Model(&database.EventRecord{})

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}
	if len(filter.Sources) > 0 {
		query = query.Where("source IN ?", filter.Sources)
	}
	if filter.Priority != nil {
		query = query.Where("priority >= ?", int(*filter.Priority))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var records []database.EventRecord
	if err := query.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]Event, len(records))
	for i, record := range records {
		out[i] = fromRecord(record)
	}
	return out, total, nil
}

func (s *databaseEventStorage) Delete(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	if err := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&database.EventRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete old events: %w", err)
	}
	return nil
}

func (s *databaseEventStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.EventRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *databaseEventStorage) Close() error {
	return nil
}
