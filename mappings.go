package sigil

import (
	"fmt"
	"strings"
)

// Filter excludes marker names from traversal and mapping expansion.
// Filters with equal names must match identically; the name keys the
// mappings cache.
type Filter interface {
	Name() string
	Matches(marker string) bool
}

type filterFunc struct {
	name string
	fn   func(string) bool
}

func (f filterFunc) Name() string               { return f.name }
func (f filterFunc) Matches(marker string) bool { return f.fn(marker) }

// NewFilter builds a filter from a match function.
func NewFilter(name string, fn func(string) bool) Filter {
	return filterFunc{name: name, fn: fn}
}

// FilterNone excludes nothing.
var FilterNone Filter = filterFunc{name: "none", fn: func(string) bool { return false }}

// NewPrefixFilter excludes markers whose name begins with prefix.
func NewPrefixFilter(prefix string) Filter {
	return filterFunc{
		name: "prefix:" + prefix,
		fn:   func(s string) bool { return strings.HasPrefix(s, prefix) },
	}
}

// RepeatablePolicy controls container expansion during mapping construction.
type RepeatablePolicy uint8

const (
	// RepeatableNone ignores container relationships.
	RepeatableNone RepeatablePolicy = iota
	// RepeatableStandard expands registered container uses into their
	// contained entries.
	RepeatableStandard
)

func (p RepeatablePolicy) String() string {
	if p == RepeatableStandard {
		return "standard"
	}
	return "none"
}

// MappingOptions select the mapping variant.
//
// Multi permits attributes with more than one alias claim. Without it,
// mapping construction rejects multi-claim attributes, matching the stricter
// single-alias contract.
type MappingOptions struct {
	Filter     Filter
	Repeatable RepeatablePolicy
	Multi      bool
}

// Mapping is one node of the expanded meta-hierarchy of a root marker.
type Mapping struct {
	Marker string
	Depth  int
	// Parent is the index of the parent mapping, -1 for the root.
	Parent int
	// Use is the use that carried the marker onto its parent, nil for the
	// root.
	Use *Use
}

// Mappings is the ordered meta-hierarchy expansion of a root marker. Index 0
// is the root; deeper levels follow in breadth-first order.
type Mappings struct {
	root string
	list []Mapping
}

// Root returns the root marker name.
func (m *Mappings) Root() string { return m.root }

// Size returns the number of mapped markers.
func (m *Mappings) Size() int { return len(m.list) }

// Get returns the mapping at index i.
func (m *Mappings) Get(i int) Mapping { return m.list[i] }

// All returns a copy of every mapping in order.
func (m *Mappings) All() []Mapping {
	out := make([]Mapping, len(m.list))
	copy(out, m.list)
	return out
}

// ForMarker returns every mapping of the named marker, one per distinct path
// from the root.
func (m *Mappings) ForMarker(name string) []Mapping {
	var out []Mapping
	for _, mp := range m.list {
		if mp.Marker == name {
			out = append(out, mp)
		}
	}
	return out
}

// MappingsFor expands the meta-hierarchy of the root marker under the given
// options. Expansions are cached per (marker, filter, policy, multi) key.
// Configuration errors propagate and are never cached; any other
// construction failure routes to the failure handler and yields an empty
// expansion.
func (e *Engine) MappingsFor(marker string, opts MappingOptions) (*Mappings, error) {
	if opts.Filter == nil {
		opts.Filter = FilterNone
	}
	if _, ok := e.registry.Lookup(marker); !ok {
		return nil, unknownMarker(marker)
	}
	key := fmt.Sprintf("%s|%s|%s|%t", marker, opts.Filter.Name(), opts.Repeatable, opts.Multi)
	if cached, ok := e.mappings.Get(key); ok {
		e.emitCache("hit", "mappings", key)
		return cached, nil
	}
	e.emitCache("miss", "mappings", key)

	m, err := e.buildMappings(marker, opts)
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}
		e.introspectionFailure("mappings:"+marker, err)
		return &Mappings{root: marker}, nil
	}
	e.mappings.Set(key, m)
	e.emitCache("store", "mappings", key)
	return m, nil
}

// buildMappings runs the breadth-first expansion. A candidate is skipped when
// the filter excludes it or it is already mapped on its own chain from the
// root; a fully filtered root yields an empty expansion.
func (e *Engine) buildMappings(marker string, opts MappingOptions) (*Mappings, error) {
	m := &Mappings{root: marker}
	if opts.Filter.Matches(marker) {
		return m, nil
	}
	root, _ := e.registry.Lookup(marker)
	if err := e.checkMapped(root, opts); err != nil {
		return nil, err
	}
	m.list = append(m.list, Mapping{Marker: marker, Parent: -1})

	queue := []int{0}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		cur := m.list[idx]
		def, ok := e.registry.Lookup(cur.Marker)
		if !ok {
			continue
		}
		for i := range def.Uses {
			candidates := []Use{def.Uses[i]}
			if opts.Repeatable == RepeatableStandard {
				if cdef, ok := e.registry.Lookup(def.Uses[i].Marker); ok && cdef.ContainerOf != "" {
					entries, err := e.containedUses(def.Uses[i])
					if err != nil {
						return nil, err
					}
					candidates = entries
				}
			}
			for c := range candidates {
				cand := candidates[c]
				if opts.Filter.Matches(cand.Marker) {
					continue
				}
				if mappedInChain(m, idx, cand.Marker) {
					continue
				}
				cdef, ok := e.registry.Lookup(cand.Marker)
				if !ok {
					e.introspectionFailure("mappings:"+marker, unknownMarker(cand.Marker))
					continue
				}
				if err := e.checkMapped(cdef, opts); err != nil {
					return nil, err
				}
				m.list = append(m.list, Mapping{
					Marker: cand.Marker,
					Depth:  cur.Depth + 1,
					Parent: idx,
					Use:    &candidates[c],
				})
				queue = append(queue, len(m.list)-1)
			}
		}
	}
	return m, nil
}

// mappedInChain walks the parent chain from idx back to the root checking
// whether name is already mapped on it.
func mappedInChain(m *Mappings, idx int, name string) bool {
	for i := idx; i >= 0; i = m.list[i].Parent {
		if m.list[i].Marker == name {
			return true
		}
	}
	return false
}

// checkMapped eagerly resolves the marker's alias claims so configuration
// faults surface during mapping construction, and enforces the Multi gate.
func (e *Engine) checkMapped(def Marker, opts MappingOptions) error {
	for _, attr := range def.Attributes {
		if !opts.Multi && len(attr.Aliases) > 1 {
			return configErr(def.Name, attr.Name,
				"attribute declares %d alias claims; enable Multi to allow more than one", len(attr.Aliases))
		}
		if _, err := e.descriptorsFor(def, attr); err != nil {
			return err
		}
	}
	return nil
}
