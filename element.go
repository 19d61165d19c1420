package sigil

// Element is an attachment point carrying marker uses. Implementations must
// be immutable once handed to sigil and must report a stable Key.
type Element interface {
	// Key identifies the element within a resolution walk. It appears in
	// events and failure reports.
	Key() string

	// Declared returns the uses attached directly to the element.
	Declared() []Use
}

// Inheritor is an element that also inherits uses from base elements. A use
// declared directly shadows inherited uses of the same marker.
type Inheritor interface {
	Element
	Inherits() []Element
}

// Point is the canonical Element implementation.
type Point struct {
	key   string
	uses  []Use
	bases []Element
}

// NewPoint builds an attachment point with the given declared uses.
func NewPoint(key string, uses ...Use) *Point {
	return &Point{key: key, uses: uses}
}

// Inherit adds base elements the point inherits uses from. It returns the
// point for chaining.
func (p *Point) Inherit(bases ...Element) *Point {
	p.bases = append(p.bases, bases...)
	return p
}

func (p *Point) Key() string { return p.key }

// Declared returns a copy of the uses attached directly to the point.
func (p *Point) Declared() []Use {
	out := make([]Use, len(p.uses))
	copy(out, p.uses)
	return out
}

// Inherits returns a copy of the point's base elements.
func (p *Point) Inherits() []Element {
	out := make([]Element, len(p.bases))
	copy(out, p.bases)
	return out
}

// markerElement adapts a marker definition to the Element interface so the
// walker can descend through meta-hierarchies.
type markerElement struct {
	def Marker
}

func (m markerElement) Key() string     { return "marker:" + m.def.Name }
func (m markerElement) Declared() []Use { return m.def.Uses }

// inheritedUses collects uses contributed by base elements in breadth-first
// order, excluding markers already declared closer to the element.
func inheritedUses(el Element) []Use {
	inh, ok := el.(Inheritor)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for _, u := range el.Declared() {
		seen[u.Marker] = true
	}
	visited := map[string]bool{el.Key(): true}
	queue := inh.Inherits()
	var out []Use
	for len(queue) > 0 {
		base := queue[0]
		queue = queue[1:]
		if base == nil || visited[base.Key()] {
			continue
		}
		visited[base.Key()] = true
		for _, u := range base.Declared() {
			if !seen[u.Marker] {
				seen[u.Marker] = true
				out = append(out, u)
			}
		}
		if bi, ok := base.(Inheritor); ok {
			queue = append(queue, bi.Inherits()...)
		}
	}
	return out
}
