// Package registry provides single-instance slots for manager components.
//
// Each slot binds a key (conventionally a type name) to at most one live
// instance. Instances are created on first access and torn down explicitly,
// which keeps the lifecycle visible and testable instead of hiding it behind
// package-level globals.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrAlreadyExists is returned when registering into an occupied slot.
	ErrAlreadyExists = errors.New("registry: instance already exists")

	// ErrNotFound is returned when a slot has no live instance.
	ErrNotFound = errors.New("registry: instance not found")
)

// slot holds one live instance and its teardown hook.
type slot struct {
	instance any
	teardown func() error
}

// Registry maps keys to single-instance slots.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		slots: make(map[string]*slot),
	}
}

// Get returns the instance bound to key, creating it with factory on first
// access. The optional teardown returned by factory is invoked when the slot
// is torn down. Idempotent after the first successful creation.
func (r *Registry) Get(key string, factory func() (any, func() error, error)) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.slots[key]; ok {
		return s.instance, nil
	}

	instance, teardown, err := factory()
	if err != nil {
		return nil, fmt.Errorf("registry: creating %q: %w", key, err)
	}

	r.slots[key] = &slot{instance: instance, teardown: teardown}
	log.Debug("Registry slot created", "key", key)
	return instance, nil
}

// Lookup returns the instance bound to key without creating one.
func (r *Registry) Lookup(key string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return s.instance, nil
}

// Register binds an existing instance to key. A second registration for the
// same key is rejected with ErrAlreadyExists; the caller should discard its
// extra instance.
func (r *Registry) Register(key string, instance any, teardown func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[key]; ok {
		log.Warn("Duplicate instance rejected", "key", key)
		return ErrAlreadyExists
	}

	r.slots[key] = &slot{instance: instance, teardown: teardown}
	return nil
}

// Teardown destroys the instance bound to key, running its teardown hook.
func (r *Registry) Teardown(key string) error {
	r.mu.Lock()
	s, ok := r.slots[key]
	if ok {
		delete(r.slots, key)
	}
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if s.teardown != nil {
		if err := s.teardown(); err != nil {
			return fmt.Errorf("registry: teardown %q: %w", key, err)
		}
	}
	log.Debug("Registry slot torn down", "key", key)
	return nil
}

// Close tears down every slot and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	slots := r.slots
	r.slots = make(map[string]*slot)
	r.mu.Unlock()

	var firstErr error
	for key, s := range slots {
		if s.teardown == nil {
			continue
		}
		if err := s.teardown(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("registry: teardown %q: %w", key, err)
		}
	}
	return firstErr
}

// Len returns the number of live slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Global registry instance and initialization guard.
var (
	globalRegistry *Registry
	globalOnce     sync.Once
)

// Global returns the process-wide registry, creating it on first call.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = New()
	})
	return globalRegistry
}

// ResetGlobal resets the global registry. NOT thread-safe; tests only.
func ResetGlobal() {
	if globalRegistry != nil {
		_ = globalRegistry.Close()
	}
	globalOnce = sync.Once{}
	globalRegistry = nil
}
