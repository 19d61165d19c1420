package sigil

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestAliasValidation(t *testing.T) {
	t.Run("mirror pair resolves", func(t *testing.T) {
		e := newTestEngine(t, routeMarker())

		names, err := e.AliasNames("Route", "path")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"endpoint", "target"}) {
			t.Errorf("expected [endpoint target], got %v", names)
		}
	})

	t.Run("non-reciprocal pair rejected", func(t *testing.T) {
		e := newTestEngine(t, Marker{
			Name: "Lopsided",
			Attributes: []Attribute{
				{Name: "path", Kind: KindString, Default: "/", Aliases: []Alias{{Attribute: "endpoint"}}},
				{Name: "endpoint", Kind: KindString, Default: "/"},
			},
		})

		_, err := e.AliasNames("Lopsided", "path")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), `attribute "endpoint" must be declared as an alias for "path"`) {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("pair defaults must agree", func(t *testing.T) {
		e := newTestEngine(t, Marker{
			Name: "Skewed",
			Attributes: []Attribute{
				{Name: "path", Kind: KindString, Default: "/", Aliases: []Alias{{Attribute: "endpoint"}}},
				{Name: "endpoint", Kind: KindString, Default: "/api", Aliases: []Alias{{Attribute: "path"}}},
			},
		})

		_, err := e.AliasNames("Skewed", "path")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), `aliased attribute "endpoint" must declare the same default value`) {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("self-referential alias rejected", func(t *testing.T) {
		e := newTestEngine(t, Marker{
			Name: "Narcissus",
			Attributes: []Attribute{
				{Name: "name", Kind: KindString, Default: "", Aliases: []Alias{{Attribute: "name"}}},
			},
		})

		_, err := e.AliasNames("Narcissus", "name")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), "alias points to itself") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("unregistered target marker rejected", func(t *testing.T) {
		e := newTestEngine(t, Marker{
			Name: "Dangling",
			Attributes: []Attribute{
				{Name: "ref", Kind: KindString, Default: "", Aliases: []Alias{{Marker: "Ghost"}}},
			},
		})

		_, err := e.AliasNames("Dangling", "ref")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), `alias targets marker "Ghost" which is not registered`) {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("missing target attribute rejected", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), Marker{
			Name: "Mistyped",
			Uses: []Use{{Marker: "Audit"}},
			Attributes: []Attribute{
				{Name: "detail", Kind: KindString, Default: "", Aliases: []Alias{
					{Marker: "Audit", Attribute: "missing"},
				}},
			},
		})

		_, err := e.AliasNames("Mistyped", "detail")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), `alias targets attribute "missing" which is not declared on Audit`) {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("incompatible kinds rejected", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), Marker{
			Name: "Miskinded",
			Uses: []Use{{Marker: "Audit"}},
			Attributes: []Attribute{
				{Name: "count", Kind: KindInt, Default: 0, Aliases: []Alias{
					{Marker: "Audit", Attribute: "level"},
				}},
			},
		})

		_, err := e.AliasNames("Miskinded", "count")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), "not compatible") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("scalar may target slice attribute", func(t *testing.T) {
		e := newTestEngine(t,
			Marker{
				Name: "Labels",
				Attributes: []Attribute{
					{Name: "values", Kind: KindStrings, Default: []string{}},
				},
			},
			Marker{
				Name: "Tagged",
				Uses: []Use{{Marker: "Labels"}},
				Attributes: []Attribute{
					{Name: "tag", Kind: KindString, Default: "", Aliases: []Alias{
						{Marker: "Labels", Attribute: "values"},
					}},
				},
			},
		)

		names, err := e.OverrideNames("Tagged", "tag", "Labels")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"values"}) {
			t.Errorf("expected [values], got %v", names)
		}
	})

	t.Run("target must be meta-present", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), Marker{
			Name: "Stranger",
			Attributes: []Attribute{
				{Name: "detail", Kind: KindString, Default: "", Aliases: []Alias{
					{Marker: "Audit", Attribute: "level"},
				}},
			},
		})

		_, err := e.AliasNames("Stranger", "detail")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), "not meta-present on Stranger") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("transitive meta-presence accepted", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(),
			Marker{Name: "Hop", Uses: []Use{{Marker: "Audit"}}},
			Marker{
				Name: "Distant",
				Uses: []Use{{Marker: "Hop"}},
				Attributes: []Attribute{
					{Name: "detail", Kind: KindString, Default: "", Aliases: []Alias{
						{Marker: "Audit", Attribute: "level"},
					}},
				},
			},
		)

		names, err := e.OverrideNames("Distant", "detail", "Audit")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"level"}) {
			t.Errorf("expected [level], got %v", names)
		}
	})
}

func TestAliasNames(t *testing.T) {
	t.Run("cross-marker claims are not aliases of each other", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), traceMarker(), loggedMarker())

		names, err := e.AliasNames("Logged", "detail")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("expected no aliases, got %v", names)
		}
	})

	t.Run("implicit group through shared target", func(t *testing.T) {
		e := newTestEngine(t,
			Marker{
				Name: "Meta",
				Attributes: []Attribute{
					{Name: "name", Kind: KindString, Default: ""},
				},
			},
			Marker{
				Name: "Label",
				Uses: []Use{{Marker: "Meta"}},
				Attributes: []Attribute{
					{Name: "title", Kind: KindString, Default: "", Aliases: []Alias{
						{Marker: "Meta", Attribute: "name"},
					}},
					{Name: "heading", Kind: KindString, Default: "", Aliases: []Alias{
						{Marker: "Meta", Attribute: "name"},
					}},
				},
			},
		)

		names, err := e.AliasNames("Label", "title")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"heading"}) {
			t.Errorf("expected [heading], got %v", names)
		}

		names, err = e.AliasNames("Label", "heading")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"title"}) {
			t.Errorf("expected [title], got %v", names)
		}
	})

	t.Run("implicit group defaults must agree", func(t *testing.T) {
		e := newTestEngine(t,
			Marker{
				Name: "Banner",
				Attributes: []Attribute{
					{Name: "name", Kind: KindString, Default: ""},
				},
			},
			Marker{
				Name: "Headline",
				Uses: []Use{{Marker: "Banner"}},
				Attributes: []Attribute{
					{Name: "title", Kind: KindString, Default: "", Aliases: []Alias{
						{Marker: "Banner", Attribute: "name"},
					}},
					{Name: "heading", Kind: KindString, Default: "untitled", Aliases: []Alias{
						{Marker: "Banner", Attribute: "name"},
					}},
				},
			},
		)

		_, err := e.AliasNames("Headline", "title")
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %v", err)
		}
		if !strings.Contains(err.Error(), `implicit alias "heading" must declare the same default value`) {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("attribute without aliases", func(t *testing.T) {
		e := newTestEngine(t, auditMarker())

		names, err := e.AliasNames("Audit", "level")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if names != nil {
			t.Errorf("expected nil, got %v", names)
		}
	})

	t.Run("unknown marker", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.AliasNames("Ghost", "name")
		if !errors.Is(err, ErrUnknownMarker) {
			t.Errorf("expected ErrUnknownMarker, got %v", err)
		}
	})

	t.Run("unknown attribute", func(t *testing.T) {
		e := newTestEngine(t, auditMarker())

		_, err := e.AliasNames("Audit", "missing")
		if !errors.Is(err, ErrUnknownAttribute) {
			t.Errorf("expected ErrUnknownAttribute, got %v", err)
		}
	})
}

func TestOverrideNames(t *testing.T) {
	t.Run("direct cross-marker override", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), traceMarker(), loggedMarker())

		names, err := e.OverrideNames("Logged", "detail", "Audit")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"level"}) {
			t.Errorf("expected [level], got %v", names)
		}

		names, err = e.OverrideNames("Logged", "detail", "Trace")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"sample"}) {
			t.Errorf("expected [sample], got %v", names)
		}
	})

	t.Run("override through intermediate marker", func(t *testing.T) {
		e := newTestEngine(t, policyMarker(), backoffMarker(), retryMarker())

		names, err := e.OverrideNames("Retry", "pause", "Backoff")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"pause", "wait", "delay"}) {
			t.Errorf("expected [pause wait delay], got %v", names)
		}

		names, err = e.OverrideNames("Retry", "pause", "Policy")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"pause", "wait", "delay"}) {
			t.Errorf("expected [pause wait delay], got %v", names)
		}
	})

	t.Run("override crosses mirror groups at every level", func(t *testing.T) {
		e := newTestEngine(t, gridMarker(), tierMarker(), poolMarker(), nodeMarker())

		names, err := e.OverrideNames("Node", "region", "Pool")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"region", "zone", "area"}) {
			t.Errorf("expected [region zone area], got %v", names)
		}

		// The Tier claim rides on Pool.zone, so zone is discovered first and
		// its mirror partners complete the set.
		names, err = e.OverrideNames("Node", "region", "Tier")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"zone", "region", "area"}) {
			t.Errorf("expected [zone region area], got %v", names)
		}

		names, err = e.OverrideNames("Node", "region", "Grid")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names, []string{"area", "region", "zone"}) {
			t.Errorf("expected [area region zone], got %v", names)
		}
	})

	t.Run("unreachable target yields nil", func(t *testing.T) {
		e := newTestEngine(t, auditMarker(), traceMarker(), loggedMarker(), Marker{
			Name: "Island",
			Attributes: []Attribute{
				{Name: "name", Kind: KindString, Default: ""},
			},
		})

		names, err := e.OverrideNames("Logged", "detail", "Island")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if names != nil {
			t.Errorf("expected nil, got %v", names)
		}
	})

	t.Run("unknown arguments", func(t *testing.T) {
		e := newTestEngine(t, auditMarker())

		if _, err := e.OverrideNames("Ghost", "x", "Audit"); !errors.Is(err, ErrUnknownMarker) {
			t.Errorf("expected ErrUnknownMarker for source, got %v", err)
		}
		if _, err := e.OverrideNames("Audit", "missing", "Audit"); !errors.Is(err, ErrUnknownAttribute) {
			t.Errorf("expected ErrUnknownAttribute, got %v", err)
		}
		if _, err := e.OverrideNames("Audit", "level", "Ghost"); !errors.Is(err, ErrUnknownMarker) {
			t.Errorf("expected ErrUnknownMarker for target, got %v", err)
		}
	})
}

func TestDescriptorCaching(t *testing.T) {
	t.Run("resolved descriptors are cached", func(t *testing.T) {
		e := newTestEngine(t, routeMarker())

		first, err := e.AliasNames("Route", "path")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		size := e.descriptors.Size()
		if size == 0 {
			t.Fatal("expected descriptor cache to be populated")
		}

		second, err := e.AliasNames("Route", "path")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected stable results, got %v then %v", first, second)
		}
		if e.descriptors.Size() != size {
			t.Errorf("expected cache size to stay at %d, got %d", size, e.descriptors.Size())
		}
	})

	t.Run("configuration errors are not cached", func(t *testing.T) {
		e := newTestEngine(t, Marker{
			Name: "Broken",
			Attributes: []Attribute{
				{Name: "ref", Kind: KindString, Default: "", Aliases: []Alias{{Marker: "Ghost"}}},
			},
		})

		for i := 0; i < 2; i++ {
			if _, err := e.AliasNames("Broken", "ref"); !IsConfigError(err) {
				t.Fatalf("call %d: expected config error, got %v", i+1, err)
			}
		}
		if e.descriptors.Size() != 0 {
			t.Errorf("expected empty descriptor cache, got size %d", e.descriptors.Size())
		}
	})
}
