package facade

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is; the underlying cause, if any, is
// reachable with errors.Unwrap or errors.As.
var (
	ErrInstantiation    = errors.New("instantiation failed")
	ErrNoMatchingMethod = errors.New("no matching method")
	ErrInvocation       = errors.New("invocation failed")
	ErrFieldAccess      = errors.New("field access failed")
)

// errNilInstance is the cause when an instance facade wraps a nil result.
var errNilInstance = errors.New("nil instance")

// Error describes a failed facade operation.
type Error struct {
	// Op is the facade operation: "instantiate", "invoke", "get", or "set".
	Op string
	// Type is the canonical name of the target type.
	Type string
	// Member is the method or field name ("" for instantiate).
	Member string
	// Kind is one of the Err* failure kinds.
	Kind error
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	target := e.Type
	if e.Member != "" {
		target += "." + e.Member
	}
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, target, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, target, e.Kind, e.Err)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// PanicError carries a panic raised by an invoked member.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
