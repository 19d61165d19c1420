package sigil

import (
	"fmt"
	"strings"
)

// Synthesizer produces the queryable view of a merged attribute table.
// Custom synthesizers registered per marker replace the default view.
type Synthesizer interface {
	Synthesize(attrs *Attributes) (*Value, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(attrs *Attributes) (*Value, error)

func (f SynthesizerFunc) Synthesize(attrs *Attributes) (*Value, error) { return f(attrs) }

// Value is a synthesized marker view over merged attributes. Reads are
// alias-transparent: every member of an alias group reports the group's
// resolved value, because synthesis happens after finalization.
type Value struct {
	attrs *Attributes
}

// NewValue wraps a merged table in a queryable view. Custom synthesizers use
// it to build their result.
func NewValue(attrs *Attributes) *Value {
	return &Value{attrs: attrs}
}

// Marker returns the marker the value belongs to.
func (v *Value) Marker() string { return v.attrs.Marker() }

// Attributes exposes the underlying merged table for typed reads.
func (v *Value) Attributes() *Attributes { return v.attrs }

// Get returns the merged value of the named attribute.
func (v *Value) Get(name string) (any, bool) { return v.attrs.Get(name) }

// Equal reports whether both views resolve to the same merged values.
// Synthesized views compare equal exactly when their merged tables do.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.attrs.Equal(o.attrs)
}

// String renders the view in declaration form.
func (v *Value) String() string {
	var sb strings.Builder
	sb.WriteString("@")
	sb.WriteString(v.attrs.Marker())
	sb.WriteString("(")
	for i, name := range v.attrs.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString("=")
		fmt.Fprintf(&sb, "%v", v.attrs.values[name])
	}
	sb.WriteString(")")
	return sb.String()
}

type defaultSynthesizer struct{}

func (defaultSynthesizer) Synthesize(attrs *Attributes) (*Value, error) {
	return NewValue(attrs), nil
}

// RegisterSynthesizer installs a custom synthesizer for the marker on the
// engine. It can be called regardless of seal status.
func (e *Engine) RegisterSynthesizer(marker string, s Synthesizer) {
	e.synthMutex.Lock()
	defer e.synthMutex.Unlock()

	e.synthesizers[marker] = s
}

// synthesizerFor returns the registered synthesizer for the marker, or the
// default one.
func (e *Engine) synthesizerFor(marker string) Synthesizer {
	e.synthMutex.RLock()
	defer e.synthMutex.RUnlock()

	if s, ok := e.synthesizers[marker]; ok {
		return s
	}
	return e.defaultSynth
}
