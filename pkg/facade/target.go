package facade

import "github.com/funvibe/reflector/pkg/catalog"

// Target is what a facade wraps: either a type (TypeTarget) or a concrete
// instance (InstanceTarget). The interface is sealed to those two variants.
type Target interface {
	// Handle returns the type the target's members are resolved against.
	Handle() *catalog.TypeHandle
	sealed()
}

// TypeTarget wraps a type handle. Operations resolve against the binding's
// constructors, static functions, and static variables.
type TypeTarget struct {
	handle *catalog.TypeHandle
}

func (t TypeTarget) Handle() *catalog.TypeHandle { return t.handle }

func (TypeTarget) sealed() {}

// InstanceTarget wraps a value. Operations resolve against the value's
// runtime type; the handle caches that type's binding.
type InstanceTarget struct {
	handle *catalog.TypeHandle
	value  any
}

func (t InstanceTarget) Handle() *catalog.TypeHandle { return t.handle }

// Value returns the wrapped instance.
func (t InstanceTarget) Value() any { return t.value }

func (InstanceTarget) sealed() {}
