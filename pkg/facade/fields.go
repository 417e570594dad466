package facade

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/funvibe/reflector/internal/overload"
)

// GetField returns the current value of an exported field (instance mode) or
// of a registered static variable (static mode). A missing or unexported
// field is an ErrFieldAccess failure; the target is never returned in its
// place.
func (f *Facade) GetField(name string) (any, error) {
	v, err := f.field(name)
	if err != nil {
		return nil, f.fail("get", name, ErrFieldAccess, err)
	}
	return v.Interface(), nil
}

// SetField assigns value to an exported field or a static variable and
// returns the same facade. Struct fields can only be set through a pointer
// instance. value must be structurally assignable to the field's type.
func (f *Facade) SetField(name string, value any) (*Facade, error) {
	v, err := f.field(name)
	if err != nil {
		return nil, f.fail("set", name, ErrFieldAccess, err)
	}
	if !v.CanSet() {
		return nil, f.fail("set", name, ErrFieldAccess, errors.New("field is not addressable"))
	}
	if !overload.Accepts(v.Type(), reflect.TypeOf(value)) {
		return nil, f.fail("set", name, ErrFieldAccess,
			fmt.Errorf("%s is not assignable to %s", signature(overload.ArgumentTypes(value)), v.Type()))
	}
	adapted, err := overload.Adapt(value, v.Type())
	if err != nil {
		return nil, f.fail("set", name, ErrFieldAccess, err)
	}
	v.Set(adapted)
	return f, nil
}

func (f *Facade) field(name string) (reflect.Value, error) {
	switch t := f.target.(type) {
	case TypeTarget:
		sv, ok := t.handle.Binding().LookupVar(name)
		if !ok {
			return reflect.Value{}, errors.New("no such static variable")
		}
		return sv.Ptr.Elem(), nil

	case InstanceTarget:
		v := reflect.ValueOf(t.value)
		if !v.IsValid() {
			return reflect.Value{}, errNilInstance
		}
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, errNilInstance
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s has no fields", v.Type())
		}
		sf, ok := v.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return reflect.Value{}, errors.New("no such exported field")
		}
		fv, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			return reflect.Value{}, err
		}
		// promoted through an unexported embedded struct
		if !fv.CanInterface() {
			return reflect.Value{}, errors.New("no such exported field")
		}
		return fv, nil
	}
	return reflect.Value{}, errors.New("unknown target")
}
