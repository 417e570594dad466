// Package overload picks a callable member for a loosely typed argument list.
//
// A declared parameter signature structurally matches an argument signature
// when both have the same length and, position by position, the boxed form of
// the argument type is assignable to the boxed form of the declared type.
// That covers identical types, interface implementors, and the primitive/boxed
// equivalence in package boxing. No numeric widening is performed: an int
// argument never matches an int64 parameter.
package overload

import (
	"fmt"
	"reflect"

	"github.com/funvibe/reflector/internal/boxing"
)

// ArgumentTypes builds the argument signature of a call. A nil argument has
// no runtime type and is recorded as a nil entry.
func ArgumentTypes(args ...any) []reflect.Type {
	types := make([]reflect.Type, len(args))
	for i, arg := range args {
		types[i] = reflect.TypeOf(arg)
	}
	return types
}

// Params returns the declared parameter types of fn, skipping the first skip
// parameters (1 for method expressions, whose first parameter is the receiver).
func Params(fn reflect.Type, skip int) []reflect.Type {
	n := fn.NumIn() - skip
	if n < 0 {
		return nil
	}
	params := make([]reflect.Type, n)
	for i := range params {
		params[i] = fn.In(i + skip)
	}
	return params
}

// Exact reports whether every argument type is identical to its declared
// parameter type. Nil arguments never match exactly.
func Exact(declared, actual []reflect.Type) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i := range declared {
		if actual[i] == nil || declared[i] != actual[i] {
			return false
		}
	}
	return true
}

// Matches is the structural match used by the exhaustive resolution phase.
func Matches(declared, actual []reflect.Type) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i := range declared {
		if !Accepts(declared[i], actual[i]) {
			return false
		}
	}
	return true
}

// Accepts reports whether a parameter declared as declared accepts an argument
// of runtime type actual.
func Accepts(declared, actual reflect.Type) bool {
	if actual == nil {
		return Nillable(declared)
	}
	return boxing.Box(actual).AssignableTo(boxing.Box(declared))
}

// Nillable reports whether the zero value of t is nil.
func Nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// First returns the index of the first candidate whose signature structurally
// matches actual, in the order candidates are given, or -1.
func First(candidates [][]reflect.Type, actual []reflect.Type) int {
	for i, declared := range candidates {
		if Matches(declared, actual) {
			return i
		}
	}
	return -1
}

// FirstExact is First with the exact-match test.
func FirstExact(candidates [][]reflect.Type, actual []reflect.Type) int {
	for i, declared := range candidates {
		if Exact(declared, actual) {
			return i
		}
	}
	return -1
}

// Adapt converts arg to a value that can be passed for a parameter declared
// as declared: boxed arguments are dereferenced, primitive arguments are
// boxed into a fresh pointer, and nil becomes the zero value.
func Adapt(arg any, declared reflect.Type) (reflect.Value, error) {
	if arg == nil {
		if !Nillable(declared) {
			return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", declared)
		}
		return reflect.Zero(declared), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(declared) {
		return v, nil
	}

	// *int argument for an int parameter
	if prim, ok := boxing.Unbox(v.Type()); ok && prim.AssignableTo(declared) {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s cannot be unboxed to %s", v.Type(), declared)
		}
		return v.Elem(), nil
	}

	// int argument for a *int parameter
	if prim, ok := boxing.Unbox(declared); ok && v.Type().AssignableTo(prim) {
		p := reflect.New(prim)
		p.Elem().Set(v)
		return p, nil
	}

	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), declared)
}

// AdaptAll adapts every argument to its declared parameter type.
func AdaptAll(args []any, declared []reflect.Type) ([]reflect.Value, error) {
	if len(args) != len(declared) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(declared), len(args))
	}
	values := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := Adapt(arg, declared[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
