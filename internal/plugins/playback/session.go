// Package playback implements the media-playback backend plugin: uuid-keyed
// sessions over local media files with tag probing and persisted state.
package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/streamio/streamio/internal/events"
)

// Session states
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateStopped = "stopped"
)

// ErrSessionNotFound is returned when no session matches the given ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidTransition is returned for state changes the session cannot make.
var ErrInvalidTransition = errors.New("invalid session state transition")

// ErrPathNotAllowed is returned when a media path falls outside the
// configured media directories.
var ErrPathNotAllowed = errors.New("media path not allowed")

// Session is a playback session over a single media file.
type Session struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	MediaPath string     `gorm:"size:1024;not null" json:"media_path"`
	State     string     `gorm:"size:16;not null" json:"state"`
	Position  float64    `json:"position_seconds"`
	Title     string     `gorm:"size:512" json:"title"`
	Artist    string     `gorm:"size:512" json:"artist"`
	Album     string     `gorm:"size:512" json:"album"`
	Format    string     `gorm:"size:32" json:"format"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// TableName overrides the gorm table name
func (Session) TableName() string {
	return "playback_sessions"
}

// SessionManager owns all playback sessions.
type SessionManager struct {
	logger    hclog.Logger
	db        *gorm.DB
	eventBus  events.EventBus
	tagReader *TagReader
	mediaDirs []string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager. A non-empty mediaDirs
// list restricts sessions to files under those directories.
func NewSessionManager(logger hclog.Logger, db *gorm.DB, eventBus events.EventBus, mediaDirs []string) *SessionManager {
	return &SessionManager{
		logger:    logger.Named("session-manager"),
		db:        db,
		eventBus:  eventBus,
		tagReader: NewTagReader(),
		mediaDirs: mediaDirs,
		sessions:  make(map[string]*Session),
	}
}

func (sm *SessionManager) pathAllowed(path string) bool {
	if len(sm.mediaDirs) == 0 {
		return true
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, dir := range sm.mediaDirs {
		dirAbs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if strings.HasPrefix(abs, dirAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Start opens a new playback session for the given media file. Tag data is
// probed best-effort; an unreadable tag degrades to filename metadata.
func (sm *SessionManager) Start(mediaPath string) (*Session, error) {
	if !sm.pathAllowed(mediaPath) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotAllowed, mediaPath)
	}

	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("media file not accessible: %w", err)
	}

	meta, err := sm.tagReader.ReadMetadata(mediaPath)
	if err != nil {
		sm.logger.Debug("tag probe failed, using filename metadata", "path", mediaPath, "error", err)
		meta = FallbackMetadata(mediaPath)
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		MediaPath: mediaPath,
		State:     StatePlaying,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		Format:    meta.Format,
		StartedAt: now,
		UpdatedAt: now,
	}

	if sm.db != nil {
		if err := sm.db.Create(session).Error; err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.publish(events.EventPlaybackStarted, session)
	sm.logger.Info("playback session started", "session_id", session.ID, "title", session.Title)

	return session, nil
}

// Pause pauses a playing session.
func (sm *SessionManager) Pause(sessionID string) (*Session, error) {
	return sm.transition(sessionID, StatePlaying, StatePaused, events.EventPlaybackPaused)
}

// Resume resumes a paused session.
func (sm *SessionManager) Resume(sessionID string) (*Session, error) {
	return sm.transition(sessionID, StatePaused, StatePlaying, events.EventPlaybackResumed)
}

// Stop finishes a session. Stopping is allowed from playing or paused and is
// terminal.
func (sm *SessionManager) Stop(sessionID string) (*Session, error) {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if !exists {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if session.State == StateStopped {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: session already stopped", ErrInvalidTransition)
	}

	now := time.Now()
	session.State = StateStopped
	session.UpdatedAt = now
	session.EndedAt = &now
	sm.mu.Unlock()

	sm.persist(session)
	sm.publish(events.EventPlaybackFinished, session)
	sm.logger.Info("playback session finished", "session_id", session.ID)

	return session, nil
}

// UpdateProgress records the playback position of an active session.
func (sm *SessionManager) UpdateProgress(sessionID string, positionSeconds float64) (*Session, error) {
	if positionSeconds < 0 {
		return nil, fmt.Errorf("position must not be negative")
	}

	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if !exists {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if session.State == StateStopped {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: session is stopped", ErrInvalidTransition)
	}

	session.Position = positionSeconds
	session.UpdatedAt = time.Now()
	sm.mu.Unlock()

	sm.persist(session)
	sm.publish(events.EventPlaybackProgress, session)

	return session, nil
}

// Get returns a session by ID.
func (sm *SessionManager) Get(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// List returns all sessions ordered by start time, newest first.
func (sm *SessionManager) List() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessionCopy := *session
		list = append(list, &sessionCopy)
	}

	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].StartedAt.After(list[i].StartedAt) {
				list[i], list[j] = list[j], list[i]
			}
		}
	}

	return list
}

// ArtworkFor extracts artwork for an existing session's media file.
func (sm *SessionManager) ArtworkFor(sessionID string) (*Artwork, error) {
	session, err := sm.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sm.tagReader.ReadArtwork(session.MediaPath)
}

// StopAll stops every active session; used at plugin shutdown.
func (sm *SessionManager) StopAll() {
	sm.mu.RLock()
	var active []string
	for id, session := range sm.sessions {
		if session.State != StateStopped {
			active = append(active, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range active {
		if _, err := sm.Stop(id); err != nil {
			sm.logger.Warn("failed to stop session during shutdown", "session_id", id, "error", err)
		}
	}
}

func (sm *SessionManager) transition(sessionID, fromState, toState string, eventType events.EventType) (*Session, error) {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if !exists {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if session.State != fromState {
		sm.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.State, toState)
	}

	session.State = toState
	session.UpdatedAt = time.Now()
	sm.mu.Unlock()

	sm.persist(session)
	sm.publish(eventType, session)

	return session, nil
}

func (sm *SessionManager) persist(session *Session) {
	if sm.db == nil {
		return
	}

	sm.mu.RLock()
	sessionCopy := *session
	sm.mu.RUnlock()

	if err := sm.db.Save(&sessionCopy).Error; err != nil {
		sm.logger.Error("failed to persist session", "session_id", sessionCopy.ID, "error", err)
	}
}

func (sm *SessionManager) publish(eventType events.EventType, session *Session) {
	if sm.eventBus == nil {
		return
	}

	event := events.NewPluginEvent(eventType, PluginID, "Playback", session.Title)
	event.Data = map[string]interface{}{
		"session_id": session.ID,
		"state":      session.State,
		"position":   session.Position,
	}

	if err := sm.eventBus.PublishAsync(event); err != nil {
		sm.logger.Debug("failed to publish playback event", "error", err)
	}
}
