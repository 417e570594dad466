package ext_test

import (
	"testing"

	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/funvibe/reflector/pkg/ext"
)

type counter struct{ n int }

func (c *counter) Inc() { c.n++ }

func TestRegister(t *testing.T) {
	err := ext.Register(ext.Bind[*counter]("ext_test.Counter").
		Constructor(func() *counter { return &counter{} }).
		HiddenMethod("reset", func(c *counter) { c.n = 0 }))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	b, ok := ext.Lookup("ext_test.Counter")
	if !ok {
		t.Fatal("binding not found after Register")
	}
	if len(b.Constructors) != 1 || len(b.MethodsNamed("reset")) != 1 {
		t.Errorf("binding = %+v", b)
	}
}

func TestRegisterRejectsInvalidBinding(t *testing.T) {
	bad := ext.Bind[*counter]("ext_test.Bad").Constructor(func() int { return 0 })
	if err := ext.Register(bad); err == nil {
		t.Error("expected an error for a constructor returning the wrong type")
	}
	if _, ok := ext.Lookup("ext_test.Bad"); ok {
		t.Error("invalid binding should not be registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic on an invalid binding")
		}
	}()
	ext.MustRegister(bad)
}

func TestRegisterProtoTypes(t *testing.T) {
	types := new(protoregistry.Types)
	if err := types.RegisterMessage((&durationpb.Duration{}).ProtoReflect().Type()); err != nil {
		t.Fatal(err)
	}
	n, err := ext.RegisterProtoTypes(types)
	if err != nil || n != 1 {
		t.Fatalf("RegisterProtoTypes = %d, %v; want 1", n, err)
	}
	if _, ok := ext.Lookup("google.protobuf.Duration"); !ok {
		t.Error("google.protobuf.Duration not registered")
	}
}
