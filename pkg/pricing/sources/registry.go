package sources

import (
	"fmt"
	"sync"
)

var (
	registry = make(map[Source]Factory)
	mu       sync.RWMutex
)

// Register adds an adapter factory to the registry.
func Register(name Source, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// Create creates a new adapter instance by source name.
func Create(name Source, config map[string]interface{}) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	return factory(config)
}

// List returns all registered source names.
func List() []Source {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]Source, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
