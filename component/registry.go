package component

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/c360/ctffs/errors"
)

// Dependencies carries the shared, cross-cutting collaborators a Factory may
// need to construct a component: a logger and a metrics registrar. It stays
// intentionally small — the CTF source and sink don't need a message bus to
// talk to each other, only to the filesystem.
type Dependencies struct {
	Logger  *Logger
	Metrics MetricsRegistrar
}

// MetricsRegistrar is the minimal surface components need from a metrics
// backend; metric.Registry implements it.
type MetricsRegistrar interface {
	IncCounter(name string, labels map[string]string)
}

// Factory creates a component instance from raw JSON configuration plus
// shared Dependencies.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (Discoverable, error)

// Registration holds a factory and its descriptive metadata.
type Registration struct {
	Name        string
	Type        string // "source" or "sink"
	Description string
	Version     string
	Factory     Factory
}

// Registry is a thread-safe map of component factories by name, mirroring
// the teacher framework's componentregistry pattern at a much smaller scale.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*Registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// RegisterFactory registers a named factory. Registering the same name
// twice is a configuration error.
func (r *Registry) RegisterFactory(reg *Registration) error {
	if reg == nil || reg.Name == "" || reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidParam, "Registry", "RegisterFactory", "registration validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reg.Name]; exists {
		return errors.WrapInvalid(fmt.Errorf("factory %q already registered", reg.Name),
			"Registry", "RegisterFactory", "duplicate factory")
	}

	r.factories[reg.Name] = reg
	return nil
}

// Create instantiates a registered factory by name.
func (r *Registry) Create(name string, rawConfig json.RawMessage, deps Dependencies) (Discoverable, error) {
	r.mu.RLock()
	reg, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("no factory registered as %q", name),
			"Registry", "Create", "factory lookup")
	}
	return reg.Factory(rawConfig, deps)
}

// Names returns the registered factory names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
