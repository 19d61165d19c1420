package sigil

import (
	"context"
	"time"
)

// processor receives marker uses discovered during a hierarchy walk. The
// walker calls process on every matched use; when a descent through a meta
// use yields a result, postProcess runs once per shallower level on the way
// back out, closest level last.
type processor interface {
	process(el Element, use Use, depth int) (*Attributes, error)
	postProcess(el Element, use Use, attrs *Attributes) error
	alwaysProcesses() bool
	aggregates() bool
	aggregate(attrs *Attributes)
	aggregated() []*Attributes
}

// baseProcessor carries the shared aggregation bookkeeping.
type baseProcessor struct {
	results []*Attributes
}

func (b *baseProcessor) aggregate(attrs *Attributes) { b.results = append(b.results, attrs) }
func (b *baseProcessor) aggregated() []*Attributes   { return b.results }

// walkFrame is one level of the traversal. The walker never recurses; frames
// form an explicit stack, and parent links drive the post-processing unwind.
type walkFrame struct {
	el        Element
	uses      []Use
	via       *Use
	parent    *walkFrame
	depth     int
	idx       int
	descend   bool
	inherited bool
}

// search walks the element's marker hierarchy looking for uses of marker.
// container optionally names a repeatable container whose entries are offered
// individually. Uses of unregistered markers are skipped through the failure
// handler; everything else that goes wrong is a configuration error.
func (e *Engine) search(el Element, marker, container string, proc processor) (*Attributes, error) {
	start := time.Now()
	visited := map[string]bool{el.Key(): true}
	root := &walkFrame{el: el, uses: el.Declared()}
	stack := []*walkFrame{root}
	var final *Attributes

	for final == nil && len(stack) > 0 {
		f := stack[len(stack)-1]

		if !f.descend {
			res, err := e.matchUses(f, marker, container, proc)
			if err != nil {
				return nil, err
			}
			if res != nil {
				done, err := e.unwind(f, res, proc, &stack)
				if err != nil {
					return nil, err
				}
				if done != nil {
					final = done
				}
				continue
			}
			f.descend = true
			f.idx = 0
			continue
		}

		if f.idx < len(f.uses) {
			use := &f.uses[f.idx]
			f.idx++
			if e.filter.Matches(use.Marker) {
				continue
			}
			def, ok := e.registry.Lookup(use.Marker)
			if !ok {
				e.introspectionFailure(f.el.Key(), unknownMarker(use.Marker))
				continue
			}
			meta := markerElement{def: def}
			if visited[meta.Key()] {
				continue
			}
			visited[meta.Key()] = true
			stack = append(stack, &walkFrame{
				el:     meta,
				uses:   meta.Declared(),
				via:    use,
				parent: f,
				depth:  f.depth + 1,
			})
			continue
		}

		if f.parent == nil && !f.inherited {
			f.inherited = true
			if extras := inheritedUses(f.el); len(extras) > 0 {
				f.uses = extras
				f.descend = false
				f.idx = 0
				continue
			}
		}
		stack = stack[:len(stack)-1]
	}

	Logger.Walk.Emit(context.Background(), WALK_COMPLETE, "hierarchy walk complete", WalkEvent{
		Timestamp: time.Now(),
		Element:   el.Key(),
		Marker:    marker,
		Visited:   len(visited),
		Found:     final != nil || len(proc.aggregated()) > 0,
		Duration:  time.Since(start),
	})
	return final, nil
}

// matchUses runs the match pass over the frame's uses: direct matches first,
// container entries expanded individually. Results found at the root of an
// aggregating search accumulate; everything else short-circuits to the
// caller for unwinding.
func (e *Engine) matchUses(f *walkFrame, marker, container string, proc processor) (*Attributes, error) {
	for f.idx < len(f.uses) {
		use := f.uses[f.idx]
		f.idx++
		if e.filter.Matches(use.Marker) {
			continue
		}
		if use.Marker == marker || proc.alwaysProcesses() {
			res, err := proc.process(f.el, use, f.depth)
			if err != nil {
				return nil, err
			}
			if res != nil {
				if proc.aggregates() && f.depth == 0 {
					proc.aggregate(res)
				} else {
					return res, nil
				}
			}
		}
		if container != "" && use.Marker == container {
			entries, err := e.containedUses(use)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				res, err := proc.process(f.el, entry, f.depth)
				if err != nil {
					return nil, err
				}
				if res != nil {
					proc.aggregate(res)
				}
			}
		}
	}
	return nil, nil
}

// unwind applies postProcess for every level between the found frame and the
// root. An aggregating search keeps the result and resumes the root's
// descent; otherwise the result is final.
func (e *Engine) unwind(f *walkFrame, res *Attributes, proc processor, stack *[]*walkFrame) (*Attributes, error) {
	cur := f
	for cur.parent != nil {
		if err := proc.postProcess(cur.parent.el, *cur.via, res); err != nil {
			return nil, err
		}
		cur = cur.parent
	}
	if proc.aggregates() {
		proc.aggregate(res)
		*stack = (*stack)[:1]
		return nil, nil
	}
	return res, nil
}

// containedUses extracts the entries of a repeatable container use. Every
// entry must use the contained marker.
func (e *Engine) containedUses(use Use) ([]Use, error) {
	def, ok := e.registry.Lookup(use.Marker)
	if !ok {
		return nil, unknownMarker(use.Marker)
	}
	attr, ok := def.Attribute(ValueAttribute)
	if !ok || def.ContainerOf == "" {
		return nil, configErr(def.Name, "", "marker is not a repeatable container")
	}
	raw, explicit := use.Values[ValueAttribute]
	if !explicit {
		raw = attr.Default
	}
	normalized, err := normalizeValue(KindUses, raw)
	if err != nil {
		return nil, configErr(def.Name, ValueAttribute, "%v", err)
	}
	entries := normalized.([]Use)
	for _, entry := range entries {
		if entry.Marker != def.ContainerOf {
			return nil, configErr(def.Name, ValueAttribute,
				"container entry must use %s, not %s", def.ContainerOf, entry.Marker)
		}
	}
	return entries, nil
}

// presenceProcessor answers reachability questions without building tables.
type presenceProcessor struct {
	baseProcessor
}

func (*presenceProcessor) process(_ Element, use Use, _ int) (*Attributes, error) {
	return &Attributes{marker: use.Marker, values: map[string]any{}}, nil
}

func (*presenceProcessor) postProcess(Element, Use, *Attributes) error { return nil }
func (*presenceProcessor) alwaysProcesses() bool                      { return false }
func (*presenceProcessor) aggregates() bool                           { return false }
