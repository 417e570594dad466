package catalog

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/funvibe/reflector/internal/registry"
	"github.com/funvibe/reflector/internal/typedef"
)

// TypeHandle is a loaded type: its canonical name, where it was found, and the
// compiled-in binding it resolved to. Handles are immutable.
type TypeHandle struct {
	name      string
	source    string
	contextID uuid.UUID
	binding   *registry.Binding
	def       *typedef.Definition
}

// Name returns the canonical dotted name.
func (h *TypeHandle) Name() string { return h.name }

// Source returns the definition path ("" for handles not found by a scan).
func (h *TypeHandle) Source() string { return h.source }

// ContextID identifies the loading context that produced the handle. Handles
// loaded from the same archive share it; uuid.Nil marks synthesized handles.
func (h *TypeHandle) ContextID() uuid.UUID { return h.contextID }

// Binding returns the descriptor used to enumerate constructors and members.
func (h *TypeHandle) Binding() *registry.Binding { return h.binding }

// Type returns the Go type that instances of the handle have.
func (h *TypeHandle) Type() reflect.Type { return h.binding.Type }

// Doc returns the definition's description, if any.
func (h *TypeHandle) Doc() string {
	if h.def == nil {
		return ""
	}
	return h.def.Doc
}

// Requires returns the names the definition depends on.
func (h *TypeHandle) Requires() []string {
	if h.def == nil {
		return nil
	}
	return h.def.Requires
}

func (h *TypeHandle) String() string { return h.name }

// HandleFor returns the handle for a runtime type, used when a facade wraps a
// value that was not produced from a catalog. A type registered in reg gets
// its binding; any other type gets a bare handle with no constructors,
// statics, or hidden members, named after the Go type.
func HandleFor(reg *registry.Registry, t reflect.Type) *TypeHandle {
	if b, ok := reg.ByType(t); ok {
		return &TypeHandle{name: b.Name, binding: b}
	}
	return &TypeHandle{
		name:    t.String(),
		binding: registry.NewBinding(t.String(), t),
	}
}

// NewHandle wraps a binding that did not come from a scan.
func NewHandle(b *registry.Binding) *TypeHandle {
	return &TypeHandle{name: b.Name, binding: b}
}
