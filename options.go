package sigil

import (
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Option configures an Engine instance.
type Option func(*Engine)

// WithMetrics configures metrics collection.
func WithMetrics(registry *metricz.Registry) Option {
	return func(e *Engine) {
		e.metrics = registry
	}
}

// WithTracer configures span collection.
func WithTracer(tracer *tracez.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithFailureHandler routes skipped introspection failures to handler in
// addition to the INTROSPECTION_FAILURE signal.
func WithFailureHandler(handler FailureHandler) Option {
	return func(e *Engine) {
		e.onFailure = handler
	}
}

// WithFilter sets the default traversal filter. Filtered markers are skipped
// silently during walks.
func WithFilter(filter Filter) Option {
	return func(e *Engine) {
		if filter != nil {
			e.filter = filter
		}
	}
}

// WithSynthesizer installs a custom synthesizer for a marker.
func WithSynthesizer(marker string, s Synthesizer) Option {
	return func(e *Engine) {
		e.synthesizers[marker] = s
	}
}

// Configure applies options to the global sigil engine.
func Configure(opts ...Option) {
	for _, opt := range opts {
		opt(instance)
	}
}
