package vfd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/strata/internal/logger"
)

// DriverFactory builds a driver from its configuration map. The map
// shape is driver-specific; factories typically decode it with
// mapstructure into their own Config type.
type DriverFactory func(cfg map[string]any) (Driver, error)

// driverRegistry is the process-wide driver table. Registration is
// explicit (each driver package exposes a Register function called
// during wiring) rather than an import side effect, so the set of
// available drivers is visible at the call site.
type driverRegistry struct {
	mu        sync.RWMutex
	factories map[string]DriverFactory
}

var registry = &driverRegistry{
	factories: make(map[string]DriverFactory),
}

// RegisterDriver makes a driver factory available under name.
// Registering the same name with a new factory fails; re-registering
// is a no-op so wiring code can run more than once.
func RegisterDriver(name string, factory DriverFactory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("driver registration requires a name and a factory")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.factories[name]; exists {
		return nil
	}
	registry.factories[name] = factory
	logger.Debug("registered vfd driver", logger.KeyDriver, name)
	return nil
}

// OpenDriver builds a driver by registered name.
func OpenDriver(name string, cfg map[string]any) (Driver, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown vfd driver %q (registered: %v)", name, RegisteredDrivers())
	}
	d, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("open vfd driver %q: %w", name, err)
	}
	return d, nil
}

// RegisteredDrivers returns the registered driver names, sorted.
func RegisteredDrivers() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
