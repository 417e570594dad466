// Package boxing holds the primitive/boxed equivalence table used by overload
// resolution. Each predeclared Go basic type is paired with its reference
// form (a pointer to it), so that an argument passed as T and a parameter
// declared as *T (or the reverse) are treated as interchangeable.
//
// The table is closed and built at compile time; it is never mutated.
package boxing

import "reflect"

// Void is the marker type for "no value", the result kind of a member that
// returns nothing (or only an error).
type Void struct{}

var (
	VoidType  = reflect.TypeFor[Void]()
	ErrorType = reflect.TypeFor[error]()
)

var table = map[reflect.Type]reflect.Type{
	reflect.TypeFor[bool]():       reflect.TypeFor[*bool](),
	reflect.TypeFor[int]():        reflect.TypeFor[*int](),
	reflect.TypeFor[int8]():       reflect.TypeFor[*int8](),
	reflect.TypeFor[int16]():      reflect.TypeFor[*int16](),
	reflect.TypeFor[int32]():      reflect.TypeFor[*int32](),
	reflect.TypeFor[int64]():      reflect.TypeFor[*int64](),
	reflect.TypeFor[uint]():       reflect.TypeFor[*uint](),
	reflect.TypeFor[uint8]():      reflect.TypeFor[*uint8](),
	reflect.TypeFor[uint16]():     reflect.TypeFor[*uint16](),
	reflect.TypeFor[uint32]():     reflect.TypeFor[*uint32](),
	reflect.TypeFor[uint64]():     reflect.TypeFor[*uint64](),
	reflect.TypeFor[uintptr]():    reflect.TypeFor[*uintptr](),
	reflect.TypeFor[float32]():    reflect.TypeFor[*float32](),
	reflect.TypeFor[float64]():    reflect.TypeFor[*float64](),
	reflect.TypeFor[complex64]():  reflect.TypeFor[*complex64](),
	reflect.TypeFor[complex128](): reflect.TypeFor[*complex128](),
	reflect.TypeFor[string]():     reflect.TypeFor[*string](),
	VoidType:                      reflect.TypeFor[*Void](),
}

// unboxed is the reverse view of table, derived once at init.
var unboxed = func() map[reflect.Type]reflect.Type {
	m := make(map[reflect.Type]reflect.Type, len(table))
	for prim, boxed := range table {
		m[boxed] = prim
	}
	return m
}()

// IsPrimitive reports whether t is one of the primitive kinds in the table.
func IsPrimitive(t reflect.Type) bool {
	_, ok := table[t]
	return ok
}

// Box returns the reference form of t. Types without a primitive entry,
// including named types such as `type Celsius float64`, box to themselves.
// A nil type stays nil.
func Box(t reflect.Type) reflect.Type {
	if boxed, ok := table[t]; ok {
		return boxed
	}
	return t
}

// Unbox returns the primitive form of a boxed type and true, or t and false.
func Unbox(t reflect.Type) (reflect.Type, bool) {
	if prim, ok := unboxed[t]; ok {
		return prim, true
	}
	return t, false
}

// ResultType reports the declared "return" of a function type: the first
// result, or VoidType when the function yields no value besides an error.
func ResultType(fn reflect.Type) reflect.Type {
	switch fn.NumOut() {
	case 0:
		return VoidType
	case 1:
		if fn.Out(0) == ErrorType {
			return VoidType
		}
	}
	return fn.Out(0)
}

// IsVoid reports whether fn produces no value.
func IsVoid(fn reflect.Type) bool {
	return ResultType(fn) == VoidType
}
