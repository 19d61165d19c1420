package sigil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Admin provides exclusive write access to the marker schema.
// Only one admin instance is allowed per process to prevent conflicting
// schema changes. Once sealed, no further schema changes are allowed.
type Admin struct {
	engine *Engine
	sealed atomic.Bool // Configuration is frozen once sealed
}

var (
	adminInstance *Admin
	adminMutex    sync.Mutex
	adminCreated  bool
)

// NewAdmin creates the singleton Admin instance.
// Returns an error if an admin instance already exists in this process.
func NewAdmin() (*Admin, error) {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	if adminCreated {
		return nil, fmt.Errorf("sigil: admin already exists - only one admin allowed per process")
	}

	adminCreated = true
	adminInstance = &Admin{
		engine: instance, // Reference to global engine
	}
	return adminInstance, nil
}

// GetAdmin returns the existing admin instance if it exists, nil otherwise.
// Use this to check if an admin has been created without creating one.
func GetAdmin() *Admin {
	adminMutex.Lock()
	defer adminMutex.Unlock()
	return adminInstance
}

// Define registers one or more marker definitions through the admin.
// Resolved descriptors and mappings are invalidated so later lookups see
// the new schema immediately.
// Panics if called after Seal().
func (a *Admin) Define(markers ...Marker) error {
	if a.sealed.Load() {
		panic("sigil: cannot modify schema after configuration is sealed")
	}

	for _, m := range markers {
		if err := a.engine.Define(m); err != nil {
			return err
		}
	}

	// Clear caches to ensure immediate consistency with the new schema
	a.engine.invalidate()

	Logger.Admin.Emit(context.Background(), ADMIN_ACTION, "markers defined", AdminEvent{
		Timestamp: time.Now(),
		Action:    "define",
		Markers:   a.engine.registry.Size(),
	})
	return nil
}

// ApplySchema registers every marker in the schema document.
// Panics if called after Seal().
func (a *Admin) ApplySchema(s Schema) error {
	if a.sealed.Load() {
		panic("sigil: cannot modify schema after configuration is sealed")
	}

	if err := a.engine.DefineSchema(s); err != nil {
		return err
	}

	a.engine.invalidate()

	Logger.Admin.Emit(context.Background(), ADMIN_ACTION, "schema applied", AdminEvent{
		Timestamp: time.Now(),
		Action:    "schema_applied",
		Markers:   a.engine.registry.Size(),
	})
	return nil
}

// LoadSchemaFile loads a schema document from a YAML file and registers its
// markers. Panics if called after Seal().
func (a *Admin) LoadSchemaFile(path string) error {
	s, err := LoadSchemaFile(path)
	if err != nil {
		return err
	}
	return a.ApplySchema(*s)
}

// LoadSchemaDir loads every schema document in a directory and registers
// their markers. Panics if called after Seal().
func (a *Admin) LoadSchemaDir(dir string) error {
	schemas, err := LoadSchemaDir(dir)
	if err != nil {
		return err
	}
	for _, s := range schemas {
		if err := a.ApplySchema(s); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops every resolved descriptor and mapping.
// Use after out-of-band schema changes to force re-resolution.
func (a *Admin) Invalidate() {
	a.engine.invalidate()

	Logger.Admin.Emit(context.Background(), ADMIN_ACTION, "caches invalidated", AdminEvent{
		Timestamp: time.Now(),
		Action:    "invalidate",
		Markers:   a.engine.registry.Size(),
	})
}

// Seal freezes the configuration, preventing any further schema changes.
// After sealing, resolution is allowed but schema modifications will panic.
// This enforces proper initialization order: define the schema first, then
// resolve against it.
func (a *Admin) Seal() {
	if a.sealed.Load() {
		panic("sigil: configuration already sealed")
	}
	a.sealed.Store(true)

	// Mark the global instance as sealed too
	instance.sealed.Store(true)

	Logger.Admin.Emit(context.Background(), ADMIN_ACTION, "configuration sealed", AdminEvent{
		Timestamp: time.Now(),
		Action:    "sealed",
		Markers:   a.engine.registry.Size(),
	})
}

// IsSealed returns true if the configuration has been sealed.
func (a *Admin) IsSealed() bool {
	return a.sealed.Load()
}

// resetAdminForTesting resets the admin singleton state.
// This is only for testing purposes and should not be used in production code.
func resetAdminForTesting() {
	adminMutex.Lock()
	defer adminMutex.Unlock()
	adminInstance = nil
	adminCreated = false

	// Reset sealed state
	instance.sealed.Store(false)

	// Clear resolved state to ensure clean test state
	instance.invalidate()
}
