package sigil

import "testing"

// Shared marker fixtures for the resolution, walk, merge, and mapping tests.
// Each test builds its own engine with newTestEngine so state never leaks
// between tests.

func newTestEngine(t *testing.T, markers ...Marker) *Engine {
	t.Helper()
	e := New()
	for i := range markers {
		if err := e.Define(markers[i]); err != nil {
			t.Fatalf("define %s: %v", markers[i].Name, err)
		}
	}
	return e
}

// mirrorTriple builds a marker whose three attributes alias one another
// pairwise, all sharing the same kind and default.
func mirrorTriple(name string, attrs [3]string, kind Kind, def any) Marker {
	pair := func(a, b string) []Alias {
		return []Alias{{Attribute: a}, {Attribute: b}}
	}
	return Marker{
		Name: name,
		Attributes: []Attribute{
			{Name: attrs[0], Kind: kind, Default: def, Aliases: pair(attrs[1], attrs[2])},
			{Name: attrs[1], Kind: kind, Default: def, Aliases: pair(attrs[0], attrs[2])},
			{Name: attrs[2], Kind: kind, Default: def, Aliases: pair(attrs[0], attrs[1])},
		},
	}
}

// Cross-marker claims: Logged meta-annotates Audit and Trace and overrides
// one attribute in each from its single detail attribute.
func auditMarker() Marker {
	return Marker{
		Name: "Audit",
		Attributes: []Attribute{
			{Name: "level", Kind: KindString, Default: "basic"},
		},
	}
}

func traceMarker() Marker {
	return Marker{
		Name: "Trace",
		Attributes: []Attribute{
			{Name: "sample", Kind: KindString, Default: "none"},
		},
	}
}

func loggedMarker() Marker {
	return Marker{
		Name: "Logged",
		Uses: []Use{{Marker: "Audit"}, {Marker: "Trace"}},
		Attributes: []Attribute{
			{Name: "detail", Kind: KindString, Default: "summary", Aliases: []Alias{
				{Marker: "Audit", Attribute: "level"},
				{Marker: "Trace", Attribute: "sample"},
			}},
		},
	}
}

// Mirror triple on a single marker: any one of path, endpoint, or target
// stands in for the other two.
func routeMarker() Marker {
	return mirrorTriple("Route", [3]string{"path", "endpoint", "target"}, KindString, "/")
}

// Three-level chain: Retry meta-annotates Backoff which meta-annotates
// Policy. Backoff carries its own mirror triple and bridges into Policy;
// Retry overrides the whole family through one attribute.
func policyMarker() Marker {
	return mirrorTriple("Policy", [3]string{"wait", "delay", "pause"}, KindInt, 0)
}

func backoffMarker() Marker {
	return Marker{
		Name: "Backoff",
		Uses: []Use{{Marker: "Policy"}},
		Attributes: []Attribute{
			{Name: "wait", Kind: KindInt, Default: 0, Aliases: []Alias{
				{Attribute: "delay"}, {Attribute: "pause"},
			}},
			{Name: "delay", Kind: KindInt, Default: 0, Aliases: []Alias{
				{Attribute: "wait"}, {Attribute: "pause"},
			}},
			{Name: "pause", Kind: KindInt, Default: 0, Aliases: []Alias{
				{Attribute: "wait"}, {Attribute: "delay"}, {Marker: "Policy"},
			}},
		},
	}
}

func retryMarker() Marker {
	return Marker{
		Name: "Retry",
		Uses: []Use{{Marker: "Backoff"}},
		Attributes: []Attribute{
			{Name: "pause", Kind: KindInt, Default: 0, Aliases: []Alias{
				{Marker: "Backoff", Ref: "pause"},
			}},
		},
	}
}

// Four-level chain: Node bridges into Pool.region, Pool's claim into Tier
// rides on zone, and Tier's claim into Grid rides on area. Reaching the top
// therefore forces the override search across a mirror edge at both
// intermediate levels, not just down a same-name column.
func gridMarker() Marker {
	return mirrorTriple("Grid", [3]string{"region", "zone", "area"}, KindString, "any")
}

func tierMarker() Marker {
	return Marker{
		Name: "Tier",
		Uses: []Use{{Marker: "Grid"}},
		Attributes: []Attribute{
			{Name: "region", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "zone"}, {Attribute: "area"},
			}},
			{Name: "zone", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "region"}, {Attribute: "area"},
			}},
			{Name: "area", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "region"}, {Attribute: "zone"}, {Marker: "Grid"},
			}},
		},
	}
}

func poolMarker() Marker {
	return Marker{
		Name: "Pool",
		Uses: []Use{{Marker: "Tier"}},
		Attributes: []Attribute{
			{Name: "region", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "zone"}, {Attribute: "area"},
			}},
			{Name: "zone", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "region"}, {Attribute: "area"}, {Marker: "Tier"},
			}},
			{Name: "area", Kind: KindString, Default: "any", Aliases: []Alias{
				{Attribute: "region"}, {Attribute: "zone"},
			}},
		},
	}
}

func nodeMarker() Marker {
	return Marker{
		Name: "Node",
		Uses: []Use{{Marker: "Pool"}},
		Attributes: []Attribute{
			{Name: "region", Kind: KindString, Default: "any", Aliases: []Alias{
				{Marker: "Pool"},
			}},
		},
	}
}

// Same-name convention: Critical redeclares Level's severity attribute and
// overrides it by name alone, without any alias claim.
func levelMarker() Marker {
	return Marker{
		Name: "Level",
		Attributes: []Attribute{
			{Name: "severity", Kind: KindString, Default: "info"},
			{Name: ValueAttribute, Kind: KindString, Default: ""},
		},
	}
}

func criticalMarker() Marker {
	return Marker{
		Name: "Critical",
		Uses: []Use{{Marker: "Level"}},
		Attributes: []Attribute{
			{Name: "severity", Kind: KindString, Default: "fatal"},
			{Name: ValueAttribute, Kind: KindString, Default: "critical"},
		},
	}
}

// Repeatable container: Schedules bundles Schedule uses, and Nightly
// meta-annotates a single configured Schedule.
func scheduleMarker() Marker {
	return Marker{
		Name: "Schedule",
		Attributes: []Attribute{
			{Name: "cron", Kind: KindString, Default: "* * * * *"},
		},
	}
}

func schedulesMarker() Marker {
	return Marker{
		Name:        "Schedules",
		ContainerOf: "Schedule",
		Attributes: []Attribute{
			{Name: ValueAttribute, Kind: KindUses, Of: "Schedule", Default: []Use{}},
		},
	}
}

func nightlyMarker() Marker {
	return Marker{
		Name: "Nightly",
		Uses: []Use{{Marker: "Schedule", Values: map[string]any{"cron": "0 0 * * *"}}},
	}
}

func element(uses ...Use) Element {
	return NewPoint("test.Target", uses...)
}
