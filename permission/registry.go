package permission

import (
	"errors"
	"sync"
)

// Registry holds the closed universe of permission keys the client is willing
// to honor. Keys received from the backend that were never registered are
// discarded during [Registry.Normalize].
type Registry struct {
	mu     sync.RWMutex
	keys   map[string]struct{}
	order  []string
	frozen bool
}

// NewRegistry creates an empty permission [Registry]. Register the full key
// set during initialization, then call [Registry.Freeze] before first use.
func NewRegistry() *Registry {
	return &Registry{
		keys: make(map[string]struct{}),
	}
}

// Register adds the named permission key to the closed set. Must be called
// before [Registry.Freeze].
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	if name == "" {
		return errors.New("permission key cannot be empty")
	}
	if _, exists := r.keys[name]; exists {
		return errors.New("permission key already registered")
	}

	r.keys[name] = struct{}{}
	r.order = append(r.order, name)

	return nil
}

// Known reports whether the named key belongs to the closed set.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[name]
	return ok
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Freeze prevents further registrations. Must be called before the registry
// is used for normalization.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permission keys.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Normalize returns a copy of s restricted to registered keys. Keys absent
// from s are filled in as false so every normalized set covers the full
// closed universe.
func (r *Registry) Normalize(s Set) Set {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Set, len(r.order))
	for _, key := range r.order {
		out[key] = s[key]
	}
	return out
}
