package widget

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidRegistration is returned for an empty id or title, or a
	// nil renderer.
	ErrInvalidRegistration = errors.New("invalid widget registration")

	// ErrDuplicateWidget is returned when an id is registered twice.
	ErrDuplicateWidget = errors.New("widget already registered")
)

// Registration is a widget as seen by the host.
type Registration struct {
	ID       string
	Title    string
	Renderer Renderer
}

// Registry holds the widgets a host mounts. The host creates one during
// initialization and registers each widget explicitly.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Registration, 4),
	}
}

// Register adds a widget under a stable id and human-readable title.
func (r *Registry) Register(id, title string, renderer Renderer) error {
	if id == "" || title == "" || renderer == nil {
		return fmt.Errorf("%w: id, title and renderer are required", ErrInvalidRegistration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateWidget, id)
	}

	r.entries[id] = Registration{ID: id, Title: title, Renderer: renderer}
	r.order = append(r.order, id)

	return nil
}

// Lookup returns the registration for id.
func (r *Registry) Lookup(id string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[id]

	return reg, ok
}

// List returns all registrations in registration order.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}

	return out
}
