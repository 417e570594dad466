package registry

import (
	"reflect"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// ProtoBinding binds a protobuf message type under its full name, which is
// already a canonical dotted name (e.g. "google.protobuf.Timestamp"). The
// only constructor takes no arguments and returns a fresh message.
func ProtoBinding(mt protoreflect.MessageType) *Binding {
	name := string(mt.Descriptor().FullName())
	typ := reflect.TypeOf(mt.Zero().Interface())

	ctorType := reflect.FuncOf(nil, []reflect.Type{typ}, false)
	ctor := reflect.MakeFunc(ctorType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.ValueOf(mt.New().Interface())}
	})

	b := NewBinding(name, typ)
	b.Constructors = append(b.Constructors, Member{Fn: ctor, Exported: true})
	return b
}

// RegisterProtoTypes binds every message type in types. It returns the number
// of bindings registered before the first failure.
func RegisterProtoTypes(r *Registry, types *protoregistry.Types) (int, error) {
	var (
		n   int
		err error
	)
	types.RangeMessages(func(mt protoreflect.MessageType) bool {
		if err = r.Register(ProtoBinding(mt)); err != nil {
			return false
		}
		n++
		return true
	})
	return n, err
}
