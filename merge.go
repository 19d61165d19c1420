package sigil

import (
	"context"
	"time"
)

// MergeOptions adapt how reference-valued attributes appear in merged tables.
type MergeOptions struct {
	// RefsAsStrings renders ref kinds as plain strings.
	RefsAsStrings bool
	// UsesAsTables renders nested uses as attribute tables instead of Use
	// values, recursively.
	UsesAsTables bool
}

// Attributes is the merged attribute table of one marker. Attribute order
// follows the marker definition.
type Attributes struct {
	marker string
	names  []string
	values map[string]any
}

func newAttributes(def Marker) *Attributes {
	names := make([]string, len(def.Attributes))
	for i, a := range def.Attributes {
		names[i] = a.Name
	}
	return &Attributes{
		marker: def.Name,
		names:  names,
		values: make(map[string]any, len(names)),
	}
}

// Marker returns the marker the table belongs to.
func (a *Attributes) Marker() string { return a.marker }

// Names returns the attribute names in definition order.
func (a *Attributes) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Has reports whether the table carries the named attribute.
func (a *Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Get returns the merged value of the named attribute.
func (a *Attributes) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// String returns the named attribute as a string, or the zero value.
func (a *Attributes) String(name string) string {
	if s, ok := a.values[name].(string); ok {
		return s
	}
	return ""
}

// Strings returns the named attribute as a string slice, or nil.
func (a *Attributes) Strings(name string) []string {
	if s, ok := a.values[name].([]string); ok {
		return s
	}
	return nil
}

// Int returns the named attribute as an int, or the zero value.
func (a *Attributes) Int(name string) int {
	if n, ok := a.values[name].(int); ok {
		return n
	}
	return 0
}

// Float returns the named attribute as a float64, or the zero value.
func (a *Attributes) Float(name string) float64 {
	if n, ok := a.values[name].(float64); ok {
		return n
	}
	return 0
}

// Bool returns the named attribute as a bool, or false.
func (a *Attributes) Bool(name string) bool {
	if b, ok := a.values[name].(bool); ok {
		return b
	}
	return false
}

// Ref returns the named attribute as a marker reference, or the empty Ref.
// With RefsAsStrings set, ref values are plain strings; use String instead.
func (a *Attributes) Ref(name string) Ref {
	if r, ok := a.values[name].(Ref); ok {
		return r
	}
	return ""
}

// Table returns a nested use rendered as a table. Only populated when the
// table was merged with UsesAsTables.
func (a *Attributes) Table(name string) *Attributes {
	if t, ok := a.values[name].(*Attributes); ok {
		return t
	}
	return nil
}

// Tables returns nested uses rendered as tables. Only populated when the
// table was merged with UsesAsTables.
func (a *Attributes) Tables(name string) []*Attributes {
	if t, ok := a.values[name].([]*Attributes); ok {
		return t
	}
	return nil
}

// Map returns a copy of the merged values.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Equal reports whether both tables belong to the same marker and hold equal
// values.
func (a *Attributes) Equal(o *Attributes) bool {
	if a == nil || o == nil {
		return a == o
	}
	if a.marker != o.marker || len(a.values) != len(o.values) {
		return false
	}
	for k, v := range a.values {
		ov, ok := o.values[k]
		if !ok || !equalValues(v, ov) {
			return false
		}
	}
	return true
}

func (a *Attributes) set(name string, v any) {
	if _, ok := a.values[name]; !ok {
		known := false
		for _, n := range a.names {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			a.names = append(a.names, name)
		}
	}
	a.values[name] = v
}

// checkUse verifies that every explicit value belongs to a declared
// attribute.
func (e *Engine) checkUse(def Marker, use Use) error {
	for name := range use.Values {
		if _, ok := def.Attribute(name); !ok {
			return configErr(def.Name, name, "value provided for undeclared attribute")
		}
	}
	return nil
}

// rawAttributes builds the table for a single use: explicit values where
// present, declared defaults otherwise. Nested uses expand through an
// explicit work list rather than recursion.
func (e *Engine) rawAttributes(def Marker, use Use, opts MergeOptions) (*Attributes, error) {
	out := newAttributes(def)
	type job struct {
		def Marker
		use Use
		out *Attributes
	}
	jobs := []job{{def, use, out}}
	for len(jobs) > 0 {
		j := jobs[len(jobs)-1]
		jobs = jobs[:len(jobs)-1]
		if err := e.checkUse(j.def, j.use); err != nil {
			return nil, err
		}
		for _, attr := range j.def.Attributes {
			v, explicit := j.use.Values[attr.Name]
			if !explicit {
				v = attr.Default
			} else {
				normalized, err := normalizeValue(attr.Kind, v)
				if err != nil {
					return nil, configErr(j.def.Name, attr.Name, "%v", err)
				}
				v = normalized
			}
			switch {
			case attr.Kind == KindUse && opts.UsesAsTables:
				u := v.(Use)
				nested, ok := e.registry.Lookup(u.Marker)
				if !ok {
					return nil, configErr(j.def.Name, attr.Name, "nested use of unregistered marker %q", u.Marker)
				}
				sub := newAttributes(nested)
				j.out.set(attr.Name, sub)
				jobs = append(jobs, job{nested, u, sub})
			case attr.Kind == KindUses && opts.UsesAsTables:
				us := v.([]Use)
				subs := make([]*Attributes, len(us))
				for i, u := range us {
					nested, ok := e.registry.Lookup(u.Marker)
					if !ok {
						return nil, configErr(j.def.Name, attr.Name, "nested use of unregistered marker %q", u.Marker)
					}
					subs[i] = newAttributes(nested)
					jobs = append(jobs, job{nested, u, subs[i]})
				}
				j.out.set(attr.Name, subs)
			default:
				j.out.set(attr.Name, adaptScalar(attr.Kind, v, opts))
			}
		}
	}
	return out, nil
}

// adaptScalar applies RefsAsStrings to a normalized value.
func adaptScalar(k Kind, v any, opts MergeOptions) any {
	if !opts.RefsAsStrings {
		return v
	}
	switch k {
	case KindRef:
		if r, ok := v.(Ref); ok {
			return string(r)
		}
	case KindRefs:
		if rs, ok := v.([]Ref); ok {
			out := make([]string, len(rs))
			for i, r := range rs {
				out[i] = string(r)
			}
			return out
		}
	}
	return v
}

// adaptedValue resolves the use's value for the attribute, explicit or
// default, and applies the adaptation flags.
func (e *Engine) adaptedValue(use Use, attr Attribute, opts MergeOptions) (any, error) {
	v, explicit := use.Values[attr.Name]
	if !explicit {
		v = attr.Default
	} else {
		normalized, err := normalizeValue(attr.Kind, v)
		if err != nil {
			return nil, configErr(use.Marker, attr.Name, "%v", err)
		}
		v = normalized
	}
	switch {
	case attr.Kind == KindUse && opts.UsesAsTables:
		u := v.(Use)
		nested, ok := e.registry.Lookup(u.Marker)
		if !ok {
			return nil, configErr(use.Marker, attr.Name, "nested use of unregistered marker %q", u.Marker)
		}
		return e.rawAttributes(nested, u, opts)
	case attr.Kind == KindUses && opts.UsesAsTables:
		us := v.([]Use)
		subs := make([]*Attributes, len(us))
		for i, u := range us {
			nested, ok := e.registry.Lookup(u.Marker)
			if !ok {
				return nil, configErr(use.Marker, attr.Name, "nested use of unregistered marker %q", u.Marker)
			}
			sub, err := e.rawAttributes(nested, u, opts)
			if err != nil {
				return nil, err
			}
			subs[i] = sub
		}
		return subs, nil
	}
	return adaptScalar(attr.Kind, v, opts), nil
}

// mergeProcessor builds merged attribute tables during a walk.
type mergeProcessor struct {
	baseProcessor
	engine *Engine
	opts   MergeOptions
	agg    bool
}

func (p *mergeProcessor) alwaysProcesses() bool { return false }
func (p *mergeProcessor) aggregates() bool      { return p.agg }

func (p *mergeProcessor) process(el Element, use Use, _ int) (*Attributes, error) {
	def, ok := p.engine.registry.Lookup(use.Marker)
	if !ok {
		p.engine.introspectionFailure(el.Key(), unknownMarker(use.Marker))
		return nil, nil
	}
	return p.engine.rawAttributes(def, use, p.opts)
}

// postProcess applies one level of overrides from the bridging use onto the
// deeper result. Explicit alias overrides run first and fan out across the
// target's alias group; attributes without an override relationship fall
// back to the same-name convention. Each slot is written at most once per
// level, and the primary value slot is exempt from the convention.
func (p *mergeProcessor) postProcess(_ Element, use Use, attrs *Attributes) error {
	e := p.engine
	def, ok := e.registry.Lookup(use.Marker)
	if !ok {
		return nil
	}
	if err := e.checkUse(def, use); err != nil {
		return err
	}
	target, ok := e.registry.Lookup(attrs.Marker())
	if !ok {
		return nil
	}

	replaced := make(map[string]bool)
	for _, attr := range def.Attributes {
		overrides, err := e.overrideNames(def, attr, attrs.Marker())
		if err != nil {
			return err
		}
		if len(overrides) > 0 {
			v, err := e.adaptedValue(use, attr, p.opts)
			if err != nil {
				return err
			}
			for _, name := range overrides {
				if replaced[name] {
					continue
				}
				group := []string{name}
				if targetAttr, ok := target.Attribute(name); ok {
					aliases, err := e.aliasGroup(target, targetAttr)
					if err != nil {
						return err
					}
					group = append(group, aliases...)
				}
				for _, t := range group {
					if replaced[t] {
						continue
					}
					attrs.set(t, v)
					replaced[t] = true
				}
			}
			continue
		}
		if attr.Name == ValueAttribute || !attrs.Has(attr.Name) || replaced[attr.Name] {
			continue
		}
		v, err := e.adaptedValue(use, attr, p.opts)
		if err != nil {
			return err
		}
		attrs.set(attr.Name, v)
		replaced[attr.Name] = true
	}
	return nil
}

// finalize resolves the intra-table alias groups of the merged result:
// explicitly set members of a group must agree, and the agreed value
// propagates across the whole group; otherwise declared defaults stand.
func (p *mergeProcessor) finalize(attrs *Attributes) error {
	e := p.engine
	def, ok := e.registry.Lookup(attrs.Marker())
	if !ok {
		return nil
	}
	done := make(map[string]bool)
	for _, attr := range def.Attributes {
		if done[attr.Name] {
			continue
		}
		aliases, err := e.aliasGroup(def, attr)
		if err != nil {
			return err
		}
		family := append([]string{attr.Name}, aliases...)
		for _, n := range family {
			done[n] = true
		}
		if len(family) == 1 {
			continue
		}

		var chosen any
		var chosenName string
		found := false
		for _, n := range family {
			member, ok := def.Attribute(n)
			if !ok {
				continue
			}
			dv, err := e.adaptedValue(Use{Marker: def.Name}, member, p.opts)
			if err != nil {
				return err
			}
			cur, ok := attrs.Get(n)
			if !ok || equalValues(cur, dv) {
				continue
			}
			if found && !equalValues(cur, chosen) {
				return configErr(def.Name, chosenName,
					"attribute and its alias %q declare different values %v and %v", n, chosen, cur)
			}
			if !found {
				chosen = cur
				chosenName = n
				found = true
			}
		}
		if found {
			for _, n := range family {
				attrs.set(n, chosen)
			}
		}
	}
	return nil
}

// merged runs a non-aggregating merge search and finalizes the result.
func (e *Engine) merged(el Element, marker string, opts MergeOptions) (*Attributes, error) {
	start := time.Now()
	proc := &mergeProcessor{engine: e, opts: opts}
	res, err := e.search(el, marker, "", proc)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	if err := proc.finalize(res); err != nil {
		return nil, err
	}
	Logger.Merge.Emit(context.Background(), MERGE_COMPLETE, "attributes merged", MergeEvent{
		Timestamp:  time.Now(),
		Element:    el.Key(),
		Marker:     marker,
		Found:      true,
		Attributes: len(res.names),
		Duration:   time.Since(start),
	})
	return res, nil
}

// mergedAll runs an aggregating merge search across the whole hierarchy.
func (e *Engine) mergedAll(el Element, marker, container string, opts MergeOptions) ([]*Attributes, error) {
	start := time.Now()
	proc := &mergeProcessor{engine: e, opts: opts, agg: true}
	if _, err := e.search(el, marker, container, proc); err != nil {
		return nil, err
	}
	results := proc.aggregated()
	for _, res := range results {
		if err := proc.finalize(res); err != nil {
			return nil, err
		}
	}
	Logger.Merge.Emit(context.Background(), MERGE_COMPLETE, "attributes merged", MergeEvent{
		Timestamp:  time.Now(),
		Element:    el.Key(),
		Marker:     marker,
		Found:      len(results) > 0,
		Aggregated: len(results),
		Duration:   time.Since(start),
	})
	return results, nil
}
