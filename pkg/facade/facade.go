// Package facade invokes constructors, methods, and fields of catalogued
// types by name with loosely typed arguments.
//
// Member resolution runs in two phases. The first phase only considers
// exported members whose parameter types equal the argument types exactly.
// If none is found, the second phase considers every member, hidden ones
// included, and picks the first whose signature structurally matches the
// arguments (see package overload). When several members match structurally
// the winner is the first in binding order; callers should not rely on it.
//
// Fields have no second phase: only exported struct fields and registered
// static variables are reachable.
package facade

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/reflector/internal/boxing"
	"github.com/funvibe/reflector/internal/overload"
	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/internal/utils"
	"github.com/funvibe/reflector/pkg/catalog"
)

// Facade wraps a Target. It never mutates its target reference; every
// operation that produces a value returns a new Facade.
type Facade struct {
	target Target
	reg    *registry.Registry
}

// ForType wraps a type handle (static mode). Values produced by the facade
// resolve their handles in registry.Default.
func ForType(h *catalog.TypeHandle) *Facade {
	return ForTypeIn(registry.Default, h)
}

// ForTypeIn is ForType resolving produced values in reg.
func ForTypeIn(reg *registry.Registry, h *catalog.TypeHandle) *Facade {
	return &Facade{target: TypeTarget{handle: h}, reg: reg}
}

// ForValue wraps an existing value (instance mode). Its handle comes from the
// binding registered for its runtime type in registry.Default, or is
// synthesized from the Go type when none is registered.
func ForValue(v any) (*Facade, error) {
	return ForValueIn(registry.Default, v)
}

// ForValueIn is ForValue resolving bindings in reg.
func ForValueIn(reg *registry.Registry, v any) (*Facade, error) {
	if v == nil {
		return nil, fmt.Errorf("facade: cannot wrap a nil value")
	}
	return &Facade{
		target: InstanceTarget{handle: catalog.HandleFor(reg, reflect.TypeOf(v)), value: v},
		reg:    reg,
	}, nil
}

// Target returns the wrapped target.
func (f *Facade) Target() Target { return f.target }

// Handle returns the handle of the wrapped type.
func (f *Facade) Handle() *catalog.TypeHandle { return f.target.Handle() }

// Unwrap returns the raw wrapped value: the *catalog.TypeHandle in static
// mode, the instance in instance mode.
func (f *Facade) Unwrap() any {
	switch t := f.target.(type) {
	case InstanceTarget:
		return t.value
	case TypeTarget:
		return t.handle
	}
	return nil
}

func (f *Facade) String() string {
	switch t := f.target.(type) {
	case InstanceTarget:
		return fmt.Sprintf("%s(%v)", t.handle.Name(), t.value)
	default:
		return f.target.Handle().Name()
	}
}

// Instantiate creates an instance of the wrapped type with the constructor
// matching args.
func (f *Facade) Instantiate(args ...any) (*Facade, error) {
	h := f.target.Handle()
	actual := overload.ArgumentTypes(args...)

	ctors := constructors(h.Binding())
	c, ok := resolve(ctors, actual)
	if !ok {
		return nil, f.fail("instantiate", "", ErrInstantiation,
			fmt.Errorf("no constructor accepts %s", signature(actual)))
	}

	out, err := c.call(args)
	if err != nil {
		return nil, f.fail("instantiate", "", ErrInstantiation, err)
	}
	res := splitResults(c.fn.Type(), out)
	if res.err != nil {
		return nil, f.fail("instantiate", "", ErrInstantiation, res.err)
	}
	return f.wrap(res.value, res.declared), nil
}

// Invoke calls the member called name with args. A member that returns no
// value yields a facade around the same target; otherwise the facade wraps
// the returned value.
//
// A lowercase name also reaches the exported member spelled with an initial
// capital, so "sum" finds a method Sum.
func (f *Facade) Invoke(name string, args ...any) (*Facade, error) {
	if t, ok := f.target.(InstanceTarget); ok && t.value == nil {
		return nil, f.fail("invoke", name, ErrNoMatchingMethod, errNilInstance)
	}
	actual := overload.ArgumentTypes(args...)

	candidates := f.members(name)
	if alt := utils.MemberFallbackName(name); alt != "" {
		candidates = append(candidates, f.members(alt)...)
	}
	c, ok := resolve(candidates, actual)
	if !ok {
		return nil, f.fail("invoke", name, ErrNoMatchingMethod,
			fmt.Errorf("no member accepts %s", signature(actual)))
	}

	out, err := c.call(args)
	if err != nil {
		return nil, f.fail("invoke", name, ErrInvocation, err)
	}
	res := splitResults(c.fn.Type(), out)
	if res.err != nil {
		return nil, f.fail("invoke", name, ErrInvocation, res.err)
	}
	if res.void {
		return &Facade{target: f.target, reg: f.reg}, nil
	}
	return f.wrap(res.value, res.declared), nil
}

// wrap builds an instance facade for a produced value. A nil result keeps
// the declared type's handle.
func (f *Facade) wrap(v reflect.Value, declared reflect.Type) *Facade {
	value := v.Interface()
	t := declared
	if value != nil {
		t = reflect.TypeOf(value)
	}
	h := f.target.Handle()
	if t != h.Type() {
		h = catalog.HandleFor(f.reg, t)
	}
	return &Facade{target: InstanceTarget{handle: h, value: value}, reg: f.reg}
}

func (f *Facade) fail(op, member string, kind, err error) error {
	return &Error{
		Op:     op,
		Type:   f.target.Handle().Name(),
		Member: member,
		Kind:   kind,
		Err:    err,
	}
}

// candidate is one callable member. recv is bound ahead of the arguments for
// hidden methods.
type candidate struct {
	fn       reflect.Value
	recv     reflect.Value
	params   []reflect.Type
	exported bool
}

func (c candidate) call(args []any) (out []reflect.Value, err error) {
	in, err := overload.AdaptAll(args, c.params)
	if err != nil {
		return nil, err
	}
	if c.recv.IsValid() {
		in = append([]reflect.Value{c.recv}, in...)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &PanicError{Value: r}
		}
	}()
	if c.fn.Type().IsVariadic() {
		return c.fn.CallSlice(in), nil
	}
	return c.fn.Call(in), nil
}

// resolve runs the exact phase over exported candidates, then the structural
// phase over all of them.
func resolve(candidates []candidate, actual []reflect.Type) (candidate, bool) {
	var exported [][]reflect.Type
	var exportedIdx []int
	all := make([][]reflect.Type, len(candidates))
	for i, c := range candidates {
		all[i] = c.params
		if c.exported {
			exported = append(exported, c.params)
			exportedIdx = append(exportedIdx, i)
		}
	}
	if i := overload.FirstExact(exported, actual); i >= 0 {
		return candidates[exportedIdx[i]], true
	}
	if i := overload.First(all, actual); i >= 0 {
		return candidates[i], true
	}
	return candidate{}, false
}

func constructors(b *registry.Binding) []candidate {
	var exported, hidden []candidate
	for _, m := range b.Constructors {
		c := candidate{fn: m.Fn, params: m.Params(), exported: m.Exported}
		if m.Exported {
			exported = append(exported, c)
		} else {
			hidden = append(hidden, c)
		}
	}
	return append(exported, hidden...)
}

// members lists the callable members called name. In instance mode these are
// the value's Go method followed by the binding's hidden methods; in static
// mode the binding's functions.
func (f *Facade) members(name string) []candidate {
	switch t := f.target.(type) {
	case TypeTarget:
		var out []candidate
		for _, m := range t.handle.Binding().FuncsNamed(name) {
			out = append(out, candidate{fn: m.Fn, params: m.Params(), exported: m.Exported})
		}
		return out

	case InstanceTarget:
		var out []candidate
		v := reflect.ValueOf(t.value)
		if utils.IsExportedName(name) {
			if m := v.MethodByName(name); m.IsValid() {
				out = append(out, candidate{fn: m, params: overload.Params(m.Type(), 0), exported: true})
			}
		}
		for _, m := range t.handle.Binding().MethodsNamed(name) {
			recv, ok := receiver(v, m.Fn.Type().In(0))
			if !ok {
				continue
			}
			out = append(out, candidate{fn: m.Fn, recv: recv, params: m.Params(), exported: m.Exported})
		}
		return out
	}
	return nil
}

// receiver adapts the instance to a hidden method's receiver parameter,
// dereferencing a pointer when the method takes the value.
func receiver(v reflect.Value, want reflect.Type) (reflect.Value, bool) {
	if v.Type().AssignableTo(want) {
		return v, true
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem().AssignableTo(want) {
		return v.Elem(), true
	}
	return reflect.Value{}, false
}

type results struct {
	value    reflect.Value
	declared reflect.Type
	void     bool
	err      error
}

// splitResults maps a Go result list onto a single value: () and (error) are
// void, (v) and (v, error) yield v, and any other shape yields a []any of the
// non-error values. A non-nil trailing error fails the call.
func splitResults(fn reflect.Type, out []reflect.Value) results {
	var r results
	n := len(out)
	if n > 0 && fn.Out(n-1) == boxing.ErrorType {
		if !out[n-1].IsNil() {
			r.err = out[n-1].Interface().(error)
		}
		n--
	}
	switch n {
	case 0:
		r.void = true
	case 1:
		r.value = out[0]
		r.declared = fn.Out(0)
	default:
		values := make([]any, n)
		for i := range values {
			values[i] = out[i].Interface()
		}
		r.value = reflect.ValueOf(values)
		r.declared = r.value.Type()
	}
	return r
}

func signature(types []reflect.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			parts[i] = "nil"
		} else {
			parts[i] = t.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
