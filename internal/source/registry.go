package source

import (
	"fmt"
	"sync"
)

// Factory is a function that creates a new Source instance.
type Factory func() Source

// Registry maps driver names to source factories and holds connected
// sources keyed by a caller-chosen name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	active    map[string]Source
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		active:    make(map[string]Source),
	}
}

// RegisterDriver registers a source factory for a driver type.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Connect creates a source for the given driver and connects it under name.
// An existing source with the same name is closed first.
func (r *Registry) Connect(name string, cfg ConnectionConfig) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", cfg.Driver, r.drivers())
	}

	src := factory()
	cfg.DSN = SanitizeDSN(cfg.Driver, cfg.DSN)
	if err := src.Connect(cfg); err != nil {
		return nil, fmt.Errorf("connect source %q: %w", name, err)
	}

	if existing, ok := r.active[name]; ok {
		existing.Close()
	}
	r.active[name] = src
	return src, nil
}

// Get returns the connected source for a name.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.active[name]
	if !ok {
		return nil, fmt.Errorf("source %q not found", name)
	}
	return src, nil
}

// CloseAll closes every connected source.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, src := range r.active {
		src.Close()
		delete(r.active, name)
	}
}

func (r *Registry) drivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	return drivers
}
