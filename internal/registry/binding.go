package registry

import (
	"fmt"
	"reflect"

	"github.com/funvibe/reflector/internal/boxing"
	"github.com/funvibe/reflector/internal/overload"
)

// Member is one invoker closure attached to a binding.
type Member struct {
	// Name is the member name as seen by callers ("" for constructors).
	Name string

	// Fn is the function value that performs the call.
	Fn reflect.Value

	// Exported is false for members that bypass normal visibility, i.e.
	// closures over unexported Go code registered explicitly.
	Exported bool

	// Receiver is true for hidden methods: Fn takes the instance first.
	Receiver bool
}

// Params returns the declared parameter signature, receiver excluded.
func (m Member) Params() []reflect.Type {
	if m.Receiver {
		return overload.Params(m.Fn.Type(), 1)
	}
	return overload.Params(m.Fn.Type(), 0)
}

// Returns reports the declared result type (boxing.VoidType for none).
func (m Member) Returns() reflect.Type {
	return boxing.ResultType(m.Fn.Type())
}

// Var is a static variable exposed by a binding.
type Var struct {
	Name string
	Ptr  reflect.Value
}

// Binding describes one compiled-in type: its Go type and the closures that
// construct it or act on it. Bindings are assembled with the chained helpers
// below, typically from an init function, and must not be changed once
// registered.
type Binding struct {
	Name         string
	Type         reflect.Type
	Constructors []Member
	Methods      []Member
	Funcs        []Member
	Vars         []Var

	err error
}

// NewBinding starts a binding named name for values of type typ.
func NewBinding(name string, typ reflect.Type) *Binding {
	b := &Binding{Name: name, Type: typ}
	if name == "" {
		b.err = fmt.Errorf("binding for %v: empty name", typ)
	}
	if typ == nil {
		b.err = fmt.Errorf("binding %s: nil type", name)
	}
	return b
}

// Bind is NewBinding with the type taken from the type parameter.
func Bind[T any](name string) *Binding {
	return NewBinding(name, reflect.TypeFor[T]())
}

// Constructor adds an exported constructor. fn must be a function returning
// the binding's type, optionally followed by an error.
func (b *Binding) Constructor(fn any) *Binding {
	return b.addConstructor(fn, true)
}

// HiddenConstructor adds a constructor only reachable by exhaustive resolution.
func (b *Binding) HiddenConstructor(fn any) *Binding {
	return b.addConstructor(fn, false)
}

// HiddenMethod adds a method only reachable by exhaustive resolution. fn takes
// the receiver as its first parameter: the bound type itself or, for a
// pointer binding, the element type.
func (b *Binding) HiddenMethod(name string, fn any) *Binding {
	v, err := b.function(name, fn)
	if err != nil {
		return b.fail(err)
	}
	if v.Type().NumIn() == 0 || !b.acceptsReceiver(v.Type().In(0)) {
		return b.fail(fmt.Errorf("binding %s: hidden method %s must take %v as first parameter", b.Name, name, b.Type))
	}
	b.Methods = append(b.Methods, Member{Name: name, Fn: v, Receiver: true})
	return b
}

func (b *Binding) acceptsReceiver(in reflect.Type) bool {
	if b.Type.AssignableTo(in) {
		return true
	}
	return b.Type.Kind() == reflect.Pointer && b.Type.Elem().AssignableTo(in)
}

// Func adds an exported static function.
func (b *Binding) Func(name string, fn any) *Binding {
	return b.addFunc(name, fn, true)
}

// HiddenFunc adds a static function only reachable by exhaustive resolution.
func (b *Binding) HiddenFunc(name string, fn any) *Binding {
	return b.addFunc(name, fn, false)
}

// Var exposes a package-level variable as a static field. ptr must be a
// non-nil pointer to the variable.
func (b *Binding) Var(name string, ptr any) *Binding {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return b.fail(fmt.Errorf("binding %s: var %s must be a non-nil pointer, got %T", b.Name, name, ptr))
	}
	b.Vars = append(b.Vars, Var{Name: name, Ptr: v})
	return b
}

// Err reports the first problem found while assembling the binding.
func (b *Binding) Err() error { return b.err }

// FuncsNamed returns the static functions called name, exported first.
func (b *Binding) FuncsNamed(name string) []Member {
	return membersNamed(b.Funcs, name)
}

// MethodsNamed returns the hidden methods called name.
func (b *Binding) MethodsNamed(name string) []Member {
	return membersNamed(b.Methods, name)
}

// LookupVar returns the static variable called name.
func (b *Binding) LookupVar(name string) (Var, bool) {
	for _, v := range b.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return Var{}, false
}

func (b *Binding) addConstructor(fn any, exported bool) *Binding {
	v, err := b.function("constructor", fn)
	if err != nil {
		return b.fail(err)
	}
	ft := v.Type()
	ok := ft.NumOut() == 1 || (ft.NumOut() == 2 && ft.Out(1) == boxing.ErrorType)
	if !ok || !ft.Out(0).AssignableTo(b.Type) {
		return b.fail(fmt.Errorf("binding %s: constructor %v must return %v (and optionally error)", b.Name, ft, b.Type))
	}
	b.Constructors = append(b.Constructors, Member{Fn: v, Exported: exported})
	return b
}

func (b *Binding) addFunc(name string, fn any, exported bool) *Binding {
	v, err := b.function(name, fn)
	if err != nil {
		return b.fail(err)
	}
	b.Funcs = append(b.Funcs, Member{Name: name, Fn: v, Exported: exported})
	return b
}

func (b *Binding) function(name string, fn any) (reflect.Value, error) {
	if b.Type == nil {
		return reflect.Value{}, fmt.Errorf("binding %s: nil type", b.Name)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("binding %s: %s must be a function, got %T", b.Name, name, fn)
	}
	if v.Type().IsVariadic() {
		return reflect.Value{}, fmt.Errorf("binding %s: %s: variadic functions are not supported", b.Name, name)
	}
	return v, nil
}

func (b *Binding) fail(err error) *Binding {
	if b.err == nil {
		b.err = err
	}
	return b
}

// membersNamed keeps exported members ahead of hidden ones, each group in
// registration order.
func membersNamed(members []Member, name string) []Member {
	var exported, hidden []Member
	for _, m := range members {
		if m.Name != name {
			continue
		}
		if m.Exported {
			exported = append(exported, m)
		} else {
			hidden = append(hidden, m)
		}
	}
	return append(exported, hidden...)
}
