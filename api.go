// Package sigil provides alias-aware marker metadata resolution: registered
// marker types annotate attachment points and each other, and merged
// attribute views resolve alias claims across the whole meta-hierarchy.
package sigil

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Global singleton instance.
var instance *Engine

// Initialize the global sigil engine.
func init() {
	instance = New()
}

// Engine is the marker resolution orchestrator: the schema registry, the
// alias descriptor cache, and the mapping cache behind one surface.
//
//nolint:govet // Field order is intentional for clarity
type Engine struct {
	// Schema registry for marker definitions
	registry *Registry

	// Resolved alias descriptors, keyed by marker.attribute
	descriptors *Cache[[]*aliasDescriptor]

	// Meta-hierarchy expansions, keyed by (marker, filter, policy, multi)
	mappings *Cache[*Mappings]

	// Per-marker synthesizer registry
	synthesizers map[string]Synthesizer
	synthMutex   sync.RWMutex
	defaultSynth Synthesizer

	// Default traversal filter
	filter Filter

	// Failure channel for skipped introspection failures
	onFailure FailureHandler

	metrics *metricz.Registry
	tracer  *tracez.Tracer

	// Schema mutation is refused once sealed
	sealed atomic.Bool
}

// New builds an engine with an empty schema.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:     NewRegistry(),
		descriptors:  NewCache[[]*aliasDescriptor](),
		mappings:     NewCache[*Mappings](),
		synthesizers: make(map[string]Synthesizer),
		defaultSynth: defaultSynthesizer{},
		filter:       FilterNone,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default returns the global engine.
func Default() *Engine {
	return instance
}

// Define registers a marker definition on the engine. Definitions are
// refused once the schema is sealed.
func (e *Engine) Define(m Marker) error {
	if e.sealed.Load() {
		return ErrSealed
	}
	if err := e.registry.Define(m); err != nil {
		Logger.Schema.Emit(context.Background(), SCHEMA_INVALID, "marker definition rejected", SchemaEvent{
			Timestamp: time.Now(),
			Marker:    m.Name,
			Error:     err.Error(),
		})
		return err
	}
	Logger.Schema.Emit(context.Background(), SCHEMA_DEFINED, "marker defined", SchemaEvent{
		Timestamp: time.Now(),
		Marker:    m.Name,
		Markers:   e.registry.Size(),
	})
	return nil
}

// MustDefine registers a marker definition and panics on error.
func (e *Engine) MustDefine(m Marker) {
	if err := e.Define(m); err != nil {
		panic(err)
	}
}

// Merged returns the merged attribute table for the marker as seen from the
// element: the nearest use wins, with alias overrides applied level by level
// on the way out. Returns (nil, nil) when the marker is not associated with
// the element.
func (e *Engine) Merged(el Element, marker string) (*Attributes, error) {
	return e.merged(el, marker, MergeOptions{})
}

// MergedWith is Merged with explicit adaptation options.
func (e *Engine) MergedWith(el Element, marker string, opts MergeOptions) (*Attributes, error) {
	return e.merged(el, marker, opts)
}

// Synthesized returns the queryable merged view for the marker, built by the
// marker's registered synthesizer. Returns (nil, nil) when the marker is not
// associated with the element.
func (e *Engine) Synthesized(el Element, marker string) (*Value, error) {
	attrs, err := e.merged(el, marker, MergeOptions{})
	if err != nil || attrs == nil {
		return nil, err
	}
	return e.synthesizerFor(marker).Synthesize(attrs)
}

// MergedAll returns every merged table for the marker found across the
// element's hierarchy: direct uses first, then one per meta branch.
func (e *Engine) MergedAll(el Element, marker string) ([]*Attributes, error) {
	return e.mergedAll(el, marker, "", MergeOptions{})
}

// MergedRepeatable returns merged tables for the marker including entries of
// its registered repeatable container.
func (e *Engine) MergedRepeatable(el Element, marker string) ([]*Attributes, error) {
	container, _ := e.registry.ContainerFor(marker)
	return e.mergedAll(el, marker, container, MergeOptions{})
}

// Present reports whether the marker is associated with the element,
// directly or through the meta-hierarchy.
func (e *Engine) Present(el Element, marker string) bool {
	res, err := e.search(el, marker, "", &presenceProcessor{})
	return err == nil && res != nil
}

// Markers returns all registered marker names in sorted order.
func (e *Engine) Markers() []string {
	return e.registry.Markers()
}

// TypeOf returns the registered definition of the named marker.
func (e *Engine) TypeOf(name string) (Marker, error) {
	def, ok := e.registry.Lookup(name)
	if !ok {
		return Marker{}, unknownMarker(name)
	}
	return def, nil
}

// UsedBy returns the markers whose definitions meta-use the named marker.
func (e *Engine) UsedBy(name string) []string {
	return e.registry.UsedBy(name)
}

// Sealed reports whether the schema has been sealed.
func (e *Engine) Sealed() bool {
	return e.sealed.Load()
}

// invalidate drops every resolved artifact.
func (e *Engine) invalidate() {
	e.descriptors.Clear()
	e.mappings.Clear()
	Logger.Cache.Emit(context.Background(), CACHE_INVALIDATED, "caches invalidated", CacheEvent{
		Timestamp: time.Now(),
		Cache:     "all",
		Operation: "clear",
	})
}

// introspectionFailure routes a skipped walk failure to the configured
// handler after logging it.
func (e *Engine) introspectionFailure(point string, err error) {
	Logger.Walk.Emit(context.Background(), INTROSPECTION_FAILURE, "introspection failure skipped", WalkEvent{
		Timestamp: time.Now(),
		Point:     point,
		Error:     err.Error(),
	})
	if e.onFailure != nil {
		e.onFailure(point, err)
	}
}

// emitCache logs a cache operation on one of the engine's caches.
func (e *Engine) emitCache(op, cache, key string) {
	signal := CACHE_HIT
	switch op {
	case "miss", "store":
		signal = CACHE_MISS
	case "clear":
		signal = CACHE_INVALIDATED
	}
	size := 0
	switch cache {
	case "descriptors":
		size = e.descriptors.Size()
	case "mappings":
		size = e.mappings.Size()
	}
	Logger.Cache.Emit(context.Background(), signal, "cache "+op, CacheEvent{
		Timestamp: time.Now(),
		Cache:     cache,
		Key:       key,
		Operation: op,
		Size:      size,
	})
}

// Define registers a marker definition on the global engine.
func Define(m Marker) error {
	return instance.Define(m)
}

// MustDefine registers a marker definition on the global engine and panics
// on error.
func MustDefine(m Marker) {
	instance.MustDefine(m)
}

// Merged returns the merged attribute table for the marker as seen from the
// element. Returns (nil, nil) when the marker is not associated with the
// element.
func Merged(el Element, marker string) (*Attributes, error) {
	return instance.Merged(el, marker)
}

// MergedWith is Merged with explicit adaptation options.
func MergedWith(el Element, marker string, opts MergeOptions) (*Attributes, error) {
	return instance.MergedWith(el, marker, opts)
}

// Synthesized returns the queryable merged view for the marker.
func Synthesized(el Element, marker string) (*Value, error) {
	return instance.Synthesized(el, marker)
}

// MergedAll returns every merged table for the marker across the element's
// hierarchy.
func MergedAll(el Element, marker string) ([]*Attributes, error) {
	return instance.MergedAll(el, marker)
}

// MergedRepeatable returns merged tables for the marker including entries of
// its registered repeatable container.
func MergedRepeatable(el Element, marker string) ([]*Attributes, error) {
	return instance.MergedRepeatable(el, marker)
}

// Present reports whether the marker is associated with the element.
func Present(el Element, marker string) bool {
	return instance.Present(el, marker)
}

// AliasNames returns the attributes of marker that alias the named
// attribute.
func AliasNames(marker, attribute string) ([]string, error) {
	return instance.AliasNames(marker, attribute)
}

// OverrideNames returns the attribute names of target that the named
// attribute overrides through its alias chains.
func OverrideNames(marker, attribute, target string) ([]string, error) {
	return instance.OverrideNames(marker, attribute, target)
}

// MappingsFor expands the meta-hierarchy of the root marker on the global
// engine.
func MappingsFor(marker string, opts MappingOptions) (*Mappings, error) {
	return instance.MappingsFor(marker, opts)
}

// Markers returns all registered marker names.
func Markers() []string {
	return instance.Markers()
}

// TypeOf returns the registered definition of the named marker.
func TypeOf(name string) (Marker, error) {
	return instance.TypeOf(name)
}

// UsedBy returns the markers whose definitions meta-use the named marker.
func UsedBy(name string) []string {
	return instance.UsedBy(name)
}

// Sealed reports whether the global engine's schema has been sealed.
func Sealed() bool {
	return instance.Sealed()
}

// RegisterSynthesizer installs a custom synthesizer for the marker on the
// global engine.
func RegisterSynthesizer(marker string, s Synthesizer) {
	instance.RegisterSynthesizer(marker, s)
}
