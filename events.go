package sigil

import (
	"time"
)

// Event is the base interface for all sigil observability events.
// Each event type provides specific data about sigil's internal operations.
type Event interface {
	EventType() string
}

// SchemaEvent is emitted when marker definitions are registered or loaded.
//
//nolint:govet // Field order optimized for readability
type SchemaEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Marker    string    `json:"marker,omitempty"`
	Source    string    `json:"source,omitempty"`
	Markers   int       `json:"markers,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (SchemaEvent) EventType() string { return "schema" }

// ResolveEvent is emitted when an attribute's alias claims are resolved.
type ResolveEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Marker    string    `json:"marker"`
	Attribute string    `json:"attribute"`
	Claims    int       `json:"claims,omitempty"`
	Pairs     int       `json:"pairs,omitempty"`
}

func (ResolveEvent) EventType() string { return "resolve" }

// WalkEvent is emitted for hierarchy traversal outcomes and skipped
// introspection failures.
//
//nolint:govet // Field order optimized for readability
type WalkEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Element   string        `json:"element,omitempty"`
	Marker    string        `json:"marker,omitempty"`
	Point     string        `json:"point,omitempty"`
	Visited   int           `json:"visited,omitempty"`
	Found     bool          `json:"found"`
	Duration  time.Duration `json:"duration_ms,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func (WalkEvent) EventType() string { return "walk" }

// MergeEvent is emitted when a merged attribute table is built.
//
//nolint:govet // Field order optimized for readability
type MergeEvent struct {
	Timestamp  time.Time     `json:"timestamp"`
	Element    string        `json:"element"`
	Marker     string        `json:"marker"`
	Found      bool          `json:"found"`
	Attributes int           `json:"attributes,omitempty"`
	Aggregated int           `json:"aggregated,omitempty"`
	Duration   time.Duration `json:"duration_ms"`
}

func (MergeEvent) EventType() string { return "merge" }

// CacheEvent is emitted for cache operations.
type CacheEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Cache     string    `json:"cache"`
	Key       string    `json:"key,omitempty"`
	Operation string    `json:"operation"` // "hit", "miss", "store", "clear"
	Size      int       `json:"size,omitempty"`
}

func (CacheEvent) EventType() string { return "cache" }

// AdminEvent is emitted for schema administration operations.
type AdminEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Markers   int       `json:"markers,omitempty"`
}

func (AdminEvent) EventType() string { return "admin" }
