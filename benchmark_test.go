package sigil

import (
	"testing"
)

// Engines are built per benchmark so cache warmth stays explicit.

func benchRouteEngine() (*Engine, Element) {
	e := New()
	e.MustDefine(routeMarker())
	return e, element(Use{Marker: "Route", Values: map[string]any{"path": "/orders"}})
}

func benchChainEngine() (*Engine, Element) {
	e := New()
	e.MustDefine(policyMarker())
	e.MustDefine(backoffMarker())
	e.MustDefine(retryMarker())
	return e, element(Use{Marker: "Retry", Values: map[string]any{"pause": 7}})
}

func BenchmarkMergedSimple(b *testing.B) {
	e, el := benchRouteEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Merged(el, "Route")
	}
}

func BenchmarkMergedDeep(b *testing.B) {
	e, el := benchChainEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Merged(el, "Policy")
	}
}

func BenchmarkMergedCached(b *testing.B) {
	// Pre-resolve so descriptors are served from cache
	e, el := benchRouteEngine()
	_, _ = e.Merged(el, "Route")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Merged(el, "Route")
	}
}

func BenchmarkAliasNames(b *testing.B) {
	e, _ := benchRouteEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.AliasNames("Route", "path")
	}
}

func BenchmarkMappingsFor(b *testing.B) {
	e, _ := benchChainEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.MappingsFor("Retry", MappingOptions{Multi: true})
	}
}

func BenchmarkConcurrentMerged(b *testing.B) {
	e, el := benchChainEngine()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = e.Merged(el, "Policy")
		}
	})
}

func BenchmarkMergedMemory(b *testing.B) {
	e, el := benchRouteEngine()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Merged(el, "Route")
	}
}
