package sigil

import (
	"errors"
	"fmt"
)

// ErrUnknownMarker is returned when an operation references a marker name
// that has not been registered.
var ErrUnknownMarker = errors.New("sigil: unknown marker")

// ErrUnknownAttribute is returned when an operation references an attribute
// that is not declared on the marker.
var ErrUnknownAttribute = errors.New("sigil: unknown attribute")

// ErrSealed is returned when a schema mutation is attempted after the
// configuration has been sealed.
var ErrSealed = errors.New("sigil: schema is sealed")

// ConfigError reports an invalid declaration: a malformed alias claim, a
// value that does not conform to its attribute kind, or conflicting explicit
// values within an alias group. Configuration errors always propagate to the
// caller; they are never routed to the failure handler and never cached.
type ConfigError struct {
	Marker    string
	Attribute string
	Detail    string
}

func (e *ConfigError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("sigil: invalid configuration on %s: %s", e.Marker, e.Detail)
	}
	return fmt.Sprintf("sigil: invalid configuration on %s.%s: %s", e.Marker, e.Attribute, e.Detail)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// configErr builds a ConfigError with a formatted detail message.
func configErr(marker, attribute, format string, args ...any) *ConfigError {
	return &ConfigError{Marker: marker, Attribute: attribute, Detail: fmt.Sprintf(format, args...)}
}

func unknownMarker(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMarker, name)
}

func unknownAttribute(marker, attribute string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, marker, attribute)
}

// FailureHandler receives introspection failures that the hierarchy walker
// skipped over, such as uses of unregistered markers. The point names where
// the failure occurred. Configuration errors never reach the handler.
type FailureHandler func(point string, err error)
