package sigil

import (
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for cache operations.
const (
	CacheHitsTotal        = metricz.Key("sigil.cache.hits.total")
	CacheMissesTotal      = metricz.Key("sigil.cache.misses.total")
	CacheStoresTotal      = metricz.Key("sigil.cache.stores.total")
	CacheInvalidatesTotal = metricz.Key("sigil.cache.invalidates.total")
	CacheEntriesCount     = metricz.Key("sigil.cache.entries.count")
)

// Metric keys for resolution and merging.
const (
	MergesTotal           = metricz.Key("sigil.merges.total")
	MergeDurationMs       = metricz.Key("sigil.merge.duration.ms")
	WalksTotal            = metricz.Key("sigil.walks.total")
	WalkVisitedCount      = metricz.Key("sigil.walk.visited.count")
	ResolutionsTotal      = metricz.Key("sigil.resolutions.total")
	MappingsTotal         = metricz.Key("sigil.mappings.total")
	IntrospectionFailures = metricz.Key("sigil.introspection.failures.total")
)

// Metric keys for registry operations.
const (
	RegistryMarkersTotal = metricz.Key("sigil.registry.markers.total")
	RegistrySchemasTotal = metricz.Key("sigil.registry.schemas.total")
)

// Span keys for tracing.
const (
	MergeSpan    = tracez.Key("sigil.merge")
	WalkSpan     = tracez.Key("sigil.walk")
	ResolveSpan  = tracez.Key("sigil.resolve")
	MappingsSpan = tracez.Key("sigil.mappings")
	DefineSpan   = tracez.Key("sigil.define")
)
