package backend

import (
	"fmt"
	"sync"
)

// Registry tracks the known backends and which of them are enabled.
// Registration order is preserved so listings stay stable.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	backends map[string]Backend
	disabled map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		disabled: make(map[string]bool),
	}
}

// NewBuiltinRegistry returns a registry populated with every builtin
// definition, all driven by the given runner.
func NewBuiltinRegistry(run Runner) *Registry {
	r := NewRegistry()
	for _, def := range Builtins() {
		// Registration cannot fail here: builtin names are unique.
		_ = r.Register(NewCLI(def, run))
	}
	return r
}

// Register adds a backend. Duplicate names are an error.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	r.backends[name] = b
	r.order = append(r.order, name)
	return nil
}

// Get returns the backend with the given name, or nil.
func (r *Registry) Get(name string) Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backends[name]
}

// SetEnabled toggles a backend on or off. Disabled backends are skipped
// by search fan-out and multi-backend update/upgrade.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.backends[name]; !ok {
		return fmt.Errorf("unknown backend %q", name)
	}
	r.disabled[name] = !enabled
	return nil
}

// Enabled reports whether the named backend is enabled. Unknown names
// report false.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, known := r.backends[name]
	return known && !r.disabled[name]
}

// All returns every registered backend in registration order.
func (r *Registry) All() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.backends[name])
	}
	return out
}

// EnabledBackends returns the enabled backends in registration order.
func (r *Registry) EnabledBackends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			out = append(out, r.backends[name])
		}
	}
	return out
}

// Active returns the enabled backends whose tools are present on this
// host, in registration order. Availability is probed per call.
func (r *Registry) Active() []Backend {
	var out []Backend
	for _, b := range r.EnabledBackends() {
		if b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out
}
