package driver

import (
	"fmt"
	"sort"
	"sync"
)

// Config carries the per-zone parameters a constructor receives.
type Config struct {
	// ZoneID is the stable numeric id of the zone this driver backs.
	ZoneID int

	// Address is the driver-specific network endpoint of the real device.
	Address string

	// Updater receives partial track updates pushed by the driver.
	Updater Updater

	// Logger is the structured logger scoped to this zone.
	Logger Logger
}

// Constructor builds a new driver instance for one zone.
type Constructor func(cfg Config) (Driver, error)

// Factory resolves driver kinds to constructors.
//
// The kind set is closed: all kinds are registered during process start
// (before Setup runs) and resolution is deterministic thereafter. An
// unregistered kind is a reportable configuration error, never a nil
// driver.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
	}
}

// Register adds a constructor under the given kind name.
// Registering the same kind twice is an error; kinds are fixed at startup.
func (f *Factory) Register(kind string, ctor Constructor) error {
	if kind == "" {
		return fmt.Errorf("driver: kind must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("driver: constructor must not be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.constructors[kind]; exists {
		return fmt.Errorf("%w: %q", ErrKindRegistered, kind)
	}
	f.constructors[kind] = ctor
	return nil
}

// New resolves kind and builds a driver with the given config.
//
// Returns:
//   - Driver: New driver instance owned by the calling zone
//   - error: ErrUnknownKind if the kind is not registered, or the
//     constructor's error
func (f *Factory) New(kind string, cfg Config) (Driver, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[kind]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return ctor(cfg)
}

// Known reports whether kind is registered.
// Used to validate zone configuration at load time.
func (f *Factory) Known(kind string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.constructors[kind]
	return ok
}

// Kinds returns the sorted list of registered kind names.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.constructors))
	for k := range f.constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
