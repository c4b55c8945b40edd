// Package commands implements the host's command-dispatch mechanism: named
// handlers the frontend invokes over HTTP with a JSON argument object.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler executes a named command with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Command describes a registered command for inventory listings.
type Command struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a command to the registry. Re-registering a name is an error
// so two plugins cannot silently shadow each other.
func (r *Registry) Register(name, description string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if handler == nil {
		return fmt.Errorf("command handler is required: %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	r.handlers[name] = handler
	r.order = append(r.order, Command{Name: name, Description: description})
	return nil
}

// Invoke runs the named command.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	handler, exists := r.handlers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &UnknownCommandError{Name: name}
	}

	return handler(ctx, args)
}

// Has reports whether a command is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[name]
	return exists
}

// List returns registered commands in registration order.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listCopy := make([]Command, len(r.order))
	copy(listCopy, r.order)
	return listCopy
}

// ClearForTesting removes all registered commands. For use in tests only.
func (r *Registry) ClearForTesting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string]Handler)
	r.order = nil
}

// UnknownCommandError is returned when no handler matches the invoked name.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return "unknown command: " + e.Name
}
