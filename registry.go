package sigil

import (
	"sort"
	"sync"
)

// Registry stores marker definitions. Definitions are validated and
// normalized on the way in and immutable afterwards. Cross-marker references
// are never required to resolve at definition time, so markers may be
// registered in any order.
type Registry struct {
	markers    map[string]Marker
	usedBy     map[string][]string
	containers map[string]string
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		markers:    make(map[string]Marker),
		usedBy:     make(map[string][]string),
		containers: make(map[string]string),
	}
}

// Define registers a marker definition. Redefining an existing name or
// registering a second container for the same marker is a configuration
// error.
func (r *Registry) Define(m Marker) error {
	if err := validateMarker(&m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markers[m.Name]; exists {
		return configErr(m.Name, "", "marker already registered")
	}
	if m.ContainerOf != "" {
		if prev, exists := r.containers[m.ContainerOf]; exists {
			return configErr(m.Name, "", "marker %s is already contained by %s", m.ContainerOf, prev)
		}
	}

	r.markers[m.Name] = m
	for _, u := range m.Uses {
		r.usedBy[u.Marker] = append(r.usedBy[u.Marker], m.Name)
	}
	if m.ContainerOf != "" {
		r.containers[m.ContainerOf] = m.Name
	}
	return nil
}

// Lookup returns the definition registered under the name.
func (r *Registry) Lookup(name string) (Marker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.markers[name]
	return m, exists
}

// Markers returns all registered marker names in sorted order.
func (r *Registry) Markers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.markers))
	for name := range r.markers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsedBy returns the markers whose definitions meta-use the named marker,
// in sorted order.
func (r *Registry) UsedBy(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := r.usedBy[name]
	out := make([]string, len(users))
	copy(out, users)
	sort.Strings(out)
	return out
}

// ContainerFor returns the marker registered as the repeatable container of
// the named marker.
func (r *Registry) ContainerFor(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	container, exists := r.containers[name]
	return container, exists
}

// Size returns the number of registered markers.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.markers)
}

// reset drops every definition. Used by test isolation only.
func (r *Registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markers = make(map[string]Marker)
	r.usedBy = make(map[string][]string)
	r.containers = make(map[string]string)
}
