// Package registry holds the compiled-in type bindings that discovered type
// definitions resolve to.
//
// Go cannot load type definitions at run time, so every loadable type is
// registered ahead of time: by hand from an init function, or by code that
// `reflector gen` generates from reflector.yaml. A type definition file found
// during a scan only names the binding to use.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry maps binding names (and Go types) to bindings.
//
// Thread-safe: registration usually happens once at startup; lookups happen
// from any number of loaders and facades.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Binding
	byType map[reflect.Type]*Binding
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Binding),
		byType: make(map[reflect.Type]*Binding),
	}
}

// Default is the process-wide registry used when none is given explicitly.
var Default = New()

// Register adds b, replacing any binding previously registered under the same
// name. The type index keeps the newest binding for a given Go type.
func (r *Registry) Register(b *Binding) error {
	if b == nil {
		return fmt.Errorf("register: nil binding")
	}
	if err := b.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[b.Name]; ok && r.byType[old.Type] == old {
		delete(r.byType, old.Type)
	}
	r.byName[b.Name] = b
	r.byType[b.Type] = b
	return nil
}

// MustRegister is Register for init functions: it panics on an invalid binding.
func (r *Registry) MustRegister(b *Binding) {
	if err := r.Register(b); err != nil {
		panic(err)
	}
}

// Lookup returns the binding registered under name.
func (r *Registry) Lookup(name string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	return b, ok
}

// ByType returns the binding whose Go type is t. For a struct type T the
// binding of *T is also accepted, and the reverse.
func (r *Registry) ByType(t reflect.Type) (*Binding, bool) {
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.byType[t]; ok {
		return b, true
	}
	if t.Kind() == reflect.Pointer {
		b, ok := r.byType[t.Elem()]
		return b, ok
	}
	b, ok := r.byType[reflect.PointerTo(t)]
	return b, ok
}

// Names returns all registered binding names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Clear removes all bindings. Used for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]*Binding)
	r.byType = make(map[reflect.Type]*Binding)
}

// Register adds b to the Default registry.
func Register(b *Binding) error { return Default.Register(b) }

// MustRegister adds b to the Default registry, panicking if it is invalid.
// It is safe to call from init functions.
func MustRegister(b *Binding) { Default.MustRegister(b) }

// Lookup finds a binding in the Default registry.
func Lookup(name string) (*Binding, bool) { return Default.Lookup(name) }
