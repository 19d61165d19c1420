//go:build testing

package sigil

// Reset clears the schema registry, resolved caches, and synthesizer
// registrations on the global engine.
// This function is only available when building with -tags testing.
// It is intended for test isolation and should never be used in production.
func Reset() {
	instance.registry.reset()
	instance.descriptors.Clear()
	instance.mappings.Clear()

	instance.synthMutex.Lock()
	instance.synthesizers = make(map[string]Synthesizer)
	instance.synthMutex.Unlock()

	instance.sealed.Store(false)
	resetAdminForTesting()
}
