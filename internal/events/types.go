// Package events provides the event bus used for host, plugin, and command
// lifecycle notifications.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

// System-wide event types
const (
	// Host lifecycle events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"

	// Plugin lifecycle events
	EventPluginLoaded EventType = "plugin.loaded"
	EventPluginError  EventType = "plugin.error"

	// Command events
	EventCommandInvoked EventType = "command.invoked"

	// Playback events
	EventPlaybackStarted  EventType = "playback.started"
	EventPlaybackPaused   EventType = "playback.paused"
	EventPlaybackResumed  EventType = "playback.resumed"
	EventPlaybackProgress EventType = "playback.progress"
	EventPlaybackFinished EventType = "playback.finished"

	// Store events
	EventStoreChanged EventType = "store.changed"

	// Devtools events
	EventDevtoolsAttached EventType = "devtools.attached"
	EventConfigChanged    EventType = "config.changed"

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
	Source    string                 `json:"source"` // system, plugin:id, command:name
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
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
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// EventBusConfig represents configuration for the event bus
type EventBusConfig struct {
	BufferSize   int `json:"buffer_size"`
	RecentEvents int `json:"recent_events"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize:   256,
		RecentEvents: 100,
	}
}

// MatchesFilter reports whether an event matches a subscription filter.
// An empty filter matches every event.
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		matched := false
		for _, t := range filter.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(filter.Sources) > 0 {
		matched := false
		for _, s := range filter.Sources {
			if event.Source == s {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if filter.Priority != nil && event.Priority < *filter.Priority {
		return false
	}

	return true
}

// FilterEvents returns the subset of events matching the filter.
func FilterEvents(eventList []Event, filter EventFilter) []Event {
	filtered := make([]Event, 0, len(eventList))
	for _, event := range eventList {
		if MatchesFilter(event, filter) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// NewSystemEvent creates an event sourced from the host itself.
func NewSystemEvent(eventType EventType, title, message string) Event {
	return Event{
		Type:      eventType,
		Source:    "system",
		Title:     title,
		Message:   message,
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// NewPluginEvent creates an event sourced from a plugin.
func NewPluginEvent(eventType EventType, pluginID, title, message string) Event {
	return Event{
		Type:      eventType,
		Source:    "plugin:" + pluginID,
		Title:     title,
		Message:   message,
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}
