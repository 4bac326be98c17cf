package eventstate

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrStateNameRequired indicates a key with an empty name was registered.
	ErrStateNameRequired = errors.New("eventstate: state name must not be empty")
	// ErrNilLifecycle indicates a registration without a lifecycle.
	ErrNilLifecycle = errors.New("eventstate: lifecycle must not be nil")
	// ErrDuplicateState indicates two registrations for the same state name.
	ErrDuplicateState = errors.New("eventstate: state already registered")
	// ErrRegistryFrozen indicates a registration attempt after Build.
	ErrRegistryFrozen = errors.New("eventstate: registry is frozen")
	// ErrRegistryRequired indicates a Manager was constructed without a
	// registry.
	ErrRegistryRequired = errors.New("eventstate: registry is required")
)

// RegistryBuilder collects lifecycle registrations before the registry is
// frozen. It is not safe for concurrent use; registration is a startup-time
// activity.
type RegistryBuilder struct {
	providers map[string]provider
	frozen    bool
}

// NewRegistryBuilder constructs an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		providers: make(map[string]provider),
	}
}

// Register associates key with lifecycle, guarding against duplicates. A
// name collision is a configuration mistake and fails here, at startup,
// rather than surfacing as a bad lookup during a cycle.
func Register[T any](b *RegistryBuilder, key Key[T], lifecycle Lifecycle[T]) error {
	if b == nil {
		return fmt.Errorf("eventstate: registry builder is nil")
	}
	if b.frozen {
		return ErrRegistryFrozen
	}
	if key.Name() == "" {
		return ErrStateNameRequired
	}
	if lifecycle == nil {
		return ErrNilLifecycle
	}
	if _, exists := b.providers[key.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateState, key.Name())
	}
	b.providers[key.Name()] = eraseLifecycle(key.Name(), lifecycle)
	return nil
}

// Build freezes the builder into an immutable Registry. Further Register
// calls on the builder fail with ErrRegistryFrozen.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if b == nil {
		return nil, fmt.Errorf("eventstate: registry builder is nil")
	}
	b.frozen = true
	providers := make(map[string]provider, len(b.providers))
	for name, p := range b.providers {
		providers[name] = p
	}
	return &Registry{providers: providers}, nil
}

// Registry is the immutable mapping from state names to lifecycle
// providers. It is read-only after Build and safe for concurrent lookup
// from any number of cycles.
type Registry struct {
	providers map[string]provider
}

// Has reports whether a lifecycle is registered under name.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.providers[name]
	return ok
}

// Names returns registered state names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered lifecycles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}

func (r *Registry) lookup(name string) (provider, bool) {
	if r == nil {
		return provider{}, false
	}
	p, ok := r.providers[name]
	return p, ok
}
