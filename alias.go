package sigil

import (
	"context"
	"time"
)

// aliasDescriptor is a fully resolved and validated alias claim: the
// declaring attribute on one side, the effective target on the other. A pair
// descriptor targets another attribute of the same marker and must be
// reciprocal; any other descriptor overrides an attribute of a meta-present
// marker.
type aliasDescriptor struct {
	source     Marker
	sourceAttr Attribute
	target     Marker
	targetAttr Attribute
	pair       bool
}

// descriptorsFor resolves every alias claim declared on the attribute.
// Resolved sets are cached; configuration errors are not.
func (e *Engine) descriptorsFor(marker Marker, attr Attribute) ([]*aliasDescriptor, error) {
	if len(attr.Aliases) == 0 {
		return nil, nil
	}
	key := marker.Name + "." + attr.Name
	if cached, ok := e.descriptors.Get(key); ok {
		e.emitCache("hit", "descriptors", key)
		return cached, nil
	}
	e.emitCache("miss", "descriptors", key)

	out := make([]*aliasDescriptor, 0, len(attr.Aliases))
	pairs := 0
	for _, claim := range attr.Aliases {
		d, err := e.resolveClaim(marker, attr, claim)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		if d.pair {
			pairs++
		}
	}
	e.descriptors.Set(key, out)
	e.emitCache("store", "descriptors", key)
	Logger.Resolve.Emit(context.Background(), ALIAS_RESOLVED, "alias claims resolved", ResolveEvent{
		Timestamp: time.Now(),
		Marker:    marker.Name,
		Attribute: attr.Name,
		Claims:    len(out),
		Pairs:     pairs,
	})
	return out, nil
}

// resolveClaim constructs and validates a single descriptor.
func (e *Engine) resolveClaim(marker Marker, attr Attribute, claim Alias) (*aliasDescriptor, error) {
	if claim.Ref != "" && claim.Attribute != "" {
		return nil, configErr(marker.Name, attr.Name,
			"alias declares both ref %q and attribute %q, but only one is permitted", claim.Ref, claim.Attribute)
	}

	targetMarker := claim.Marker
	if targetMarker == "" {
		targetMarker = marker.Name
	}
	pair := targetMarker == marker.Name

	targetName := claim.Attribute
	if targetName == "" {
		targetName = claim.Ref
	}
	if targetName == "" {
		targetName = attr.Name
	}

	if pair && targetName == attr.Name {
		return nil, configErr(marker.Name, attr.Name,
			"alias points to itself; declare a different attribute or a target marker")
	}

	target, ok := e.registry.Lookup(targetMarker)
	if !ok {
		return nil, configErr(marker.Name, attr.Name,
			"alias targets marker %q which is not registered", targetMarker)
	}
	targetAttr, ok := target.Attribute(targetName)
	if !ok {
		return nil, configErr(marker.Name, attr.Name,
			"alias targets attribute %q which is not declared on %s", targetName, target.Name)
	}
	if !kindsCompatible(attr.Kind, targetAttr.Kind) {
		return nil, configErr(marker.Name, attr.Name,
			"kind %s is not compatible with %s.%s of kind %s", attr.Kind, target.Name, targetAttr.Name, targetAttr.Kind)
	}

	d := &aliasDescriptor{
		source:     marker,
		sourceAttr: attr,
		target:     target,
		targetAttr: targetAttr,
		pair:       pair,
	}
	if pair {
		if err := validatePair(d); err != nil {
			Logger.Resolve.Emit(context.Background(), ALIAS_INVALID, "alias validation failed", ResolveEvent{
				Timestamp: time.Now(),
				Marker:    marker.Name,
				Attribute: attr.Name,
			})
			return nil, err
		}
	} else if !e.metaPresent(marker, target.Name) {
		return nil, configErr(marker.Name, attr.Name,
			"alias targets %s which is not meta-present on %s", target.Name, marker.Name)
	}
	return d, nil
}

// validatePair enforces the mirror laws: the partner must declare a
// reciprocal claim with the exact source name, and both sides must agree on
// the default value.
func validatePair(d *aliasDescriptor) error {
	reciprocal := false
	for _, claim := range d.targetAttr.Aliases {
		partnerMarker := claim.Marker
		if partnerMarker == "" {
			partnerMarker = d.target.Name
		}
		if partnerMarker != d.source.Name {
			continue
		}
		name := claim.Attribute
		if name == "" {
			name = claim.Ref
		}
		if name == "" {
			name = d.targetAttr.Name
		}
		if name == d.sourceAttr.Name {
			reciprocal = true
			break
		}
	}
	if !reciprocal {
		return configErr(d.source.Name, d.sourceAttr.Name,
			"attribute %q must be declared as an alias for %q", d.targetAttr.Name, d.sourceAttr.Name)
	}
	if !equalValues(d.sourceAttr.Default, d.targetAttr.Default) {
		return configErr(d.source.Name, d.sourceAttr.Name,
			"aliased attribute %q must declare the same default value", d.targetAttr.Name)
	}
	return nil
}

// metaPresent reports whether target appears anywhere in the meta-hierarchy
// above the marker definition.
func (e *Engine) metaPresent(marker Marker, target string) bool {
	visited := map[string]bool{marker.Name: true}
	queue := append([]Use(nil), marker.Uses...)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u.Marker == target {
			return true
		}
		if visited[u.Marker] {
			continue
		}
		visited[u.Marker] = true
		if def, ok := e.registry.Lookup(u.Marker); ok {
			queue = append(queue, def.Uses...)
		}
	}
	return false
}

// attrNode identifies one attribute during graph traversal.
type attrNode struct {
	def  Marker
	attr Attribute
}

func (n attrNode) key() string { return n.def.Name + "." + n.attr.Name }

// aliasGroup returns the names of the attributes of def that alias attr:
// explicit mirror partners first, then implicit aliases that reach a shared
// target through the alias graph. The attribute's own name is not included.
func (e *Engine) aliasGroup(def Marker, attr Attribute) ([]string, error) {
	descs, err := e.descriptorsFor(def, attr)
	if err != nil {
		return nil, err
	}
	var names []string
	seen := map[string]bool{attr.Name: true}
	for _, d := range descs {
		if d.pair && !seen[d.targetAttr.Name] {
			seen[d.targetAttr.Name] = true
			names = append(names, d.targetAttr.Name)
		}
	}

	mine, err := e.reachSet(def, attr)
	if err != nil {
		return nil, err
	}
	if len(mine) == 0 {
		return names, nil
	}
	for _, other := range def.Attributes {
		if seen[other.Name] {
			continue
		}
		theirs, err := e.reachSet(def, other)
		if err != nil {
			return nil, err
		}
		shared := false
		for node := range theirs {
			if mine[node] {
				shared = true
				break
			}
		}
		if !shared {
			continue
		}
		if !kindsCompatible(attr.Kind, other.Kind) && !kindsCompatible(other.Kind, attr.Kind) {
			return nil, configErr(def.Name, attr.Name,
				"implicit alias %q must declare a compatible kind", other.Name)
		}
		if !equalValues(attr.Default, other.Default) {
			return nil, configErr(def.Name, attr.Name,
				"implicit alias %q must declare the same default value", other.Name)
		}
		seen[other.Name] = true
		names = append(names, other.Name)
	}
	return names, nil
}

// reachSet collects every attribute node reachable from attr through alias
// edges of either kind, mirror and cross-marker alike.
func (e *Engine) reachSet(def Marker, attr Attribute) (map[string]bool, error) {
	out := make(map[string]bool)
	start := attrNode{def, attr}
	visited := map[string]bool{start.key(): true}
	queue := []attrNode{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		descs, err := e.descriptorsFor(n.def, n.attr)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			next := attrNode{d.target, d.targetAttr}
			out[next.key()] = true
			if !visited[next.key()] {
				visited[next.key()] = true
				queue = append(queue, next)
			}
		}
	}
	return out, nil
}

// overrideNames collects the attribute names of target that attr overrides,
// directly or through alias chains. The search crosses both mirror and
// cross-marker edges, so an override propagates through alias groups at
// intermediate levels; a visited set keeps mirror cycles finite. Returns nil
// when target is not reachable.
func (e *Engine) overrideNames(def Marker, attr Attribute, target string) ([]string, error) {
	var out []string
	collected := make(map[string]bool)
	start := attrNode{def, attr}
	visited := map[string]bool{start.key(): true}
	queue := []attrNode{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		descs, err := e.descriptorsFor(n.def, n.attr)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if d.target.Name == target && !collected[d.targetAttr.Name] {
				collected[d.targetAttr.Name] = true
				out = append(out, d.targetAttr.Name)
			}
			next := attrNode{d.target, d.targetAttr}
			if !visited[next.key()] {
				visited[next.key()] = true
				queue = append(queue, next)
			}
		}
	}
	return out, nil
}

// AliasNames returns the attributes of marker that are aliases of the named
// attribute, explicit mirror partners and implicit group members alike.
// Returns nil when the attribute has no aliases.
func (e *Engine) AliasNames(marker, attribute string) ([]string, error) {
	def, ok := e.registry.Lookup(marker)
	if !ok {
		return nil, unknownMarker(marker)
	}
	attr, ok := def.Attribute(attribute)
	if !ok {
		return nil, unknownAttribute(marker, attribute)
	}
	return e.aliasGroup(def, attr)
}

// OverrideNames returns the attribute names of target that the named
// attribute overrides through its alias chains. Returns nil when no override
// relationship exists.
func (e *Engine) OverrideNames(marker, attribute, target string) ([]string, error) {
	def, ok := e.registry.Lookup(marker)
	if !ok {
		return nil, unknownMarker(marker)
	}
	attr, ok := def.Attribute(attribute)
	if !ok {
		return nil, unknownAttribute(marker, attribute)
	}
	if _, ok := e.registry.Lookup(target); !ok {
		return nil, unknownMarker(target)
	}
	return e.overrideNames(def, attr, target)
}
