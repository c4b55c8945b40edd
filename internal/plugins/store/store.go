// Package store implements the persistent key-value store plugin.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/streamio/streamio/internal/events"
)

// ErrKeyNotFound is returned by Get when no entry exists for the key.
var ErrKeyNotFound = errors.New("key not found")

// Entry is the persisted form of a key-value pair. Values are stored as raw
// JSON so the frontend round-trips arbitrary documents.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Key       string    `gorm:"uniqueIndex;size:512;not null" json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name
func (Entry) TableName() string {
	return "store_entries"
}

// Store provides key-value operations over the shared database.
type Store struct {
	db           *gorm.DB
	eventBus     events.EventBus
	logger       hclog.Logger
	maxValueSize int64
}

// NewStore creates a store bound to the given database handle.
func NewStore(db *gorm.DB, eventBus events.EventBus, logger hclog.Logger, maxValueSize int64) *Store {
	return &Store{
		db:           db,
		eventBus:     eventBus,
		logger:       logger,
		maxValueSize: maxValueSize,
	}
}

// Get returns the JSON value stored under key, or ErrKeyNotFound.
func (s *Store) Get(key string) (json.RawMessage, error) {
	var entry Entry
	if err := s.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return json.RawMessage(entry.Value), nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for key %s is not valid JSON", key)
	}
	if s.maxValueSize > 0 && int64(len(value)) > s.maxValueSize {
		return fmt.Errorf("value for key %s exceeds %d bytes", key, s.maxValueSize)
	}

	entry := Entry{Key: key, Value: []byte(value)}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	s.publishChange("set", key)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	s.publishChange("delete", key)
	return nil
}

// Has reports whether key exists.
func (s *Store) Has(key string) (bool, error) {
	var count int64
	if err := s.db.Model(&Entry{}).Where("key = ?", key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check key %s: %w", key, err)
	}
	return count > 0, nil
}

// Keys returns all stored keys sorted by key.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Model(&Entry{}).Order("key").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	s.publishChange("clear", "")
	return nil
}

func (s *Store) publishChange(operation, key string) {
	if s.eventBus == nil {
		return
	}

	event := events.NewPluginEvent(events.EventStoreChanged, PluginID, "Store Changed", operation)
	event.Data = map[string]interface{}{"operation": operation}
	if key != "" {
		event.Data["key"] = key
	}

	if err := s.eventBus.PublishAsync(event); err != nil {
		s.logger.Debug("failed to publish store event", "error", err)
	}
}
