package sigil

import (
	"github.com/zoobzio/zlog"
)

// Logger exposes sigil's typed event loggers, one per event family.
// Consumers attach pipz hooks to individual signals to route events to their
// own sinks.
var Logger = struct {
	Schema  *zlog.Logger[SchemaEvent]
	Resolve *zlog.Logger[ResolveEvent]
	Walk    *zlog.Logger[WalkEvent]
	Merge   *zlog.Logger[MergeEvent]
	Cache   *zlog.Logger[CacheEvent]
	Admin   *zlog.Logger[AdminEvent]
}{
	Schema:  zlog.NewLogger[SchemaEvent](),
	Resolve: zlog.NewLogger[ResolveEvent](),
	Walk:    zlog.NewLogger[WalkEvent](),
	Merge:   zlog.NewLogger[MergeEvent](),
	Cache:   zlog.NewLogger[CacheEvent](),
	Admin:   zlog.NewLogger[AdminEvent](),
}
