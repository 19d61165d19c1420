// Package testing provides shared test utilities for sigil tests.
package testing

import (
	"reflect"
	"testing"

	"github.com/zoobzio/sigil"
)

// NewEngine builds an isolated engine with the given markers defined.
// Fails the test if any definition is rejected.
func NewEngine(t testing.TB, markers ...sigil.Marker) *sigil.Engine {
	t.Helper()
	e := sigil.New()
	for _, m := range markers {
		if err := e.Define(m); err != nil {
			t.Fatalf("define %s: %v", m.Name, err)
		}
	}
	return e
}

// AssertMerged verifies that the marker resolves to a merged table on the
// element and returns it.
func AssertMerged(t testing.TB, e *sigil.Engine, el sigil.Element, marker string) *sigil.Attributes {
	t.Helper()
	attrs, err := e.Merged(el, marker)
	if err != nil {
		t.Fatalf("merged %s on %s: %v", marker, el.Key(), err)
	}
	if attrs == nil {
		t.Fatalf("expected %s to be associated with %s", marker, el.Key())
	}
	return attrs
}

// AssertNotPresent verifies that the marker is not associated with the
// element.
func AssertNotPresent(t testing.TB, e *sigil.Engine, el sigil.Element, marker string) {
	t.Helper()
	attrs, err := e.Merged(el, marker)
	if err != nil {
		t.Fatalf("merged %s on %s: %v", marker, el.Key(), err)
	}
	if attrs != nil {
		t.Errorf("expected %s to not be associated with %s", marker, el.Key())
	}
}

// AssertValue verifies that a merged table holds the expected value for the
// named attribute.
func AssertValue(t testing.TB, attrs *sigil.Attributes, name string, expected any) {
	t.Helper()
	actual, ok := attrs.Get(name)
	if !ok {
		t.Errorf("expected attribute %q on %s", name, attrs.Marker())
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %s.%s=%v, got %v", attrs.Marker(), name, expected, actual)
	}
}

// AssertValues verifies every expected attribute value on a merged table.
func AssertValues(t testing.TB, attrs *sigil.Attributes, expected map[string]any) {
	t.Helper()
	for name, want := range expected {
		AssertValue(t, attrs, name, want)
	}
}

// AssertAliasNames verifies the alias family reported for an attribute.
func AssertAliasNames(t testing.TB, e *sigil.Engine, marker, attribute string, expected ...string) {
	t.Helper()
	actual, err := e.AliasNames(marker, attribute)
	if err != nil {
		t.Fatalf("alias names %s.%s: %v", marker, attribute, err)
	}
	if len(expected) == 0 {
		if len(actual) != 0 {
			t.Errorf("expected no aliases for %s.%s, got %v", marker, attribute, actual)
		}
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %s.%s aliases %v, got %v", marker, attribute, expected, actual)
	}
}

// AssertOverrideNames verifies the override chain reported for an attribute
// toward a target marker.
func AssertOverrideNames(t testing.TB, e *sigil.Engine, marker, attribute, target string, expected ...string) {
	t.Helper()
	actual, err := e.OverrideNames(marker, attribute, target)
	if err != nil {
		t.Fatalf("override names %s.%s toward %s: %v", marker, attribute, target, err)
	}
	if len(expected) == 0 {
		if actual != nil {
			t.Errorf("expected no overrides from %s.%s toward %s, got %v", marker, attribute, target, actual)
		}
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %s.%s overrides %v toward %s, got %v", marker, attribute, expected, target, actual)
	}
}

// AssertConfigError verifies that an error is a configuration error.
func AssertConfigError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a configuration error, got nil")
	}
	if !sigil.IsConfigError(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}
