package sigil

import "github.com/zoobzio/zlog"

// Sigil signals for observability events.
// These signals allow users to route sigil's internal events to appropriate sinks.
//
//nolint:revive // ALL_CAPS is idiomatic for signal constants
const (
	// SCHEMA_DEFINED is emitted when a marker definition is registered.
	// Event type: SchemaEvent
	SCHEMA_DEFINED = zlog.Signal("SCHEMA_DEFINED")

	// SCHEMA_LOADED is emitted when a schema document is loaded from YAML.
	// Event type: SchemaEvent
	SCHEMA_LOADED = zlog.Signal("SCHEMA_LOADED")

	// SCHEMA_INVALID is emitted when a definition fails validation.
	// Event type: SchemaEvent
	SCHEMA_INVALID = zlog.Signal("SCHEMA_INVALID")

	// ALIAS_RESOLVED is emitted when an attribute's alias claims resolve.
	// Event type: ResolveEvent
	ALIAS_RESOLVED = zlog.Signal("ALIAS_RESOLVED")

	// ALIAS_INVALID is emitted when alias validation fails.
	// Event type: ResolveEvent
	ALIAS_INVALID = zlog.Signal("ALIAS_INVALID")

	// WALK_COMPLETE is emitted when a hierarchy walk finishes.
	// Event type: WalkEvent
	WALK_COMPLETE = zlog.Signal("WALK_COMPLETE")

	// INTROSPECTION_FAILURE is emitted when the walker skips over a failure.
	// Event type: WalkEvent
	INTROSPECTION_FAILURE = zlog.Signal("INTROSPECTION_FAILURE")

	// MERGE_COMPLETE is emitted when a merged attribute table is built.
	// Event type: MergeEvent
	MERGE_COMPLETE = zlog.Signal("MERGE_COMPLETE")

	// CACHE_HIT is emitted when a resolved artifact is found in cache.
	// Event type: CacheEvent
	CACHE_HIT = zlog.Signal("CACHE_HIT")

	// CACHE_MISS is emitted when a resolved artifact is not found in cache.
	// Event type: CacheEvent
	CACHE_MISS = zlog.Signal("CACHE_MISS")

	// CACHE_INVALIDATED is emitted when cached artifacts are dropped.
	// Event type: CacheEvent
	CACHE_INVALIDATED = zlog.Signal("CACHE_INVALIDATED")

	// ADMIN_ACTION is emitted for schema administration operations.
	// Event type: AdminEvent
	ADMIN_ACTION = zlog.Signal("ADMIN_ACTION")
)
