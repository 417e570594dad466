// Package ext is the registration API used by generated binding code and by
// hand-written bindings.
//
// A binding makes a Go type reachable by canonical name:
//
//	func init() {
//		ext.MustRegister(ext.Bind[*geo.Point]("geo.Point").
//			Constructor(geo.NewPoint).
//			Func("Origin", geo.Origin).
//			Var("Zero", &geo.Zero))
//	}
//
// Exported methods of the bound type need no registration; they are found by
// reflection. Hidden members wrap unexported code in closures and are only
// reached when no exported member matches a call.
package ext

import (
	"reflect"

	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/funvibe/reflector/internal/registry"
)

// Aliases
type Binding = registry.Binding
type Member = registry.Member
type Registry = registry.Registry

// Bind starts a binding for values of type T.
func Bind[T any](name string) *Binding {
	return registry.Bind[T](name)
}

// NewBinding starts a binding for values of type typ.
func NewBinding(name string, typ reflect.Type) *Binding {
	return registry.NewBinding(name, typ)
}

// NewRegistry creates a registry separate from the default one.
func NewRegistry() *Registry {
	return registry.New()
}

// Register adds b to the default registry, replacing any binding with the
// same name.
func Register(b *Binding) error {
	return registry.Register(b)
}

// MustRegister is Register that panics on an invalid binding, for init
// functions.
func MustRegister(b *Binding) {
	registry.MustRegister(b)
}

// Lookup finds a binding in the default registry.
func Lookup(name string) (*Binding, bool) {
	return registry.Lookup(name)
}

// RegisterProtoTypes binds every message type in types (usually
// protoregistry.GlobalTypes) in the default registry under its full
// protobuf name.
func RegisterProtoTypes(types *protoregistry.Types) (int, error) {
	return registry.RegisterProtoTypes(registry.Default, types)
}
