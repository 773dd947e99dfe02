package reflection

import (
	"fmt"
	"reflect"
)

// Accessor is a bound, typed read or write capability for one property of one
// type. It is a closed capability: the only implementations are method-backed
// and field-backed accessors produced during descriptor construction.
type Accessor interface {
	// Get reads the property value from target.
	Get(target reflect.Value) (reflect.Value, error)

	// Set writes value into the property on target. Read-only accessors
	// return an error.
	Set(target, value reflect.Value) error

	// Type returns the declared value type of the property: the result type
	// for getters, the parameter type for setters, the field type for fields.
	Type() reflect.Type

	sealed()
}

// methodAccessor invokes a GetX/IsX or SetX method on the target.
type methodAccessor struct {
	method reflect.Method
	typ    reflect.Type
	setter bool
}

func newGetterMethod(m reflect.Method) *methodAccessor {
	return &methodAccessor{method: m, typ: m.Type.Out(0)}
}

func newSetterMethod(m reflect.Method) *methodAccessor {
	return &methodAccessor{method: m, typ: m.Type.In(1), setter: true}
}

func (a *methodAccessor) Get(target reflect.Value) (reflect.Value, error) {
	if a.setter {
		return reflect.Value{}, fmt.Errorf("reflection: %s is a setter, not readable", a.method.Name)
	}
	recv, err := receiverFor(target, a.method)
	if err != nil {
		return reflect.Value{}, err
	}
	return recv.Method(a.method.Index).Call(nil)[0], nil
}

func (a *methodAccessor) Set(target, value reflect.Value) error {
	if !a.setter {
		return fmt.Errorf("reflection: %s is a getter, not writable", a.method.Name)
	}
	recv, err := receiverFor(target, a.method)
	if err != nil {
		return err
	}
	if !value.IsValid() {
		value = reflect.Zero(a.typ)
	}
	if !value.Type().AssignableTo(a.typ) {
		if value.Type().ConvertibleTo(a.typ) {
			value = value.Convert(a.typ)
		} else {
			return fmt.Errorf("reflection: cannot assign %s to parameter of %s (%s)",
				value.Type(), a.method.Name, a.typ)
		}
	}
	recv.Method(a.method.Index).Call([]reflect.Value{value})
	return nil
}

func (a *methodAccessor) Type() reflect.Type { return a.typ }
func (a *methodAccessor) sealed()            {}

// receiverFor produces the *T receiver the accessor's method index was
// resolved against. Unaddressable values are copied for reads and rejected
// for writes, since setter effects on a copy would be lost.
func receiverFor(target reflect.Value, m reflect.Method) (reflect.Value, error) {
	recvType := m.Type.In(0) // always *T: discovery walks the pointer method set
	if target.Type() == recvType {
		if target.IsNil() {
			return reflect.Value{}, fmt.Errorf("reflection: cannot call %s on nil %s", m.Name, target.Type())
		}
		return target, nil
	}
	if target.Type() == recvType.Elem() {
		if target.CanAddr() {
			return target.Addr(), nil
		}
		if m.Type.NumIn() > 1 {
			return reflect.Value{}, fmt.Errorf("reflection: cannot call %s on unaddressable %s", m.Name, target.Type())
		}
		ptr := reflect.New(target.Type())
		ptr.Elem().Set(target)
		return ptr, nil
	}
	return reflect.Value{}, fmt.Errorf("reflection: %s is not a valid receiver for %s", target.Type(), m.Name)
}

// fieldAccessor reads and writes an exported struct field directly. The index
// chain follows promoted fields of embedded structs.
type fieldAccessor struct {
	index []int
	typ   reflect.Type
	name  string
}

func newFieldAccessor(f reflect.StructField, index []int) *fieldAccessor {
	return &fieldAccessor{index: index, typ: f.Type, name: f.Name}
}

func (a *fieldAccessor) Get(target reflect.Value) (reflect.Value, error) {
	v, err := a.resolve(target, false)
	if err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (a *fieldAccessor) Set(target, value reflect.Value) error {
	v, err := a.resolve(target, true)
	if err != nil {
		return err
	}
	if !v.CanSet() {
		return fmt.Errorf("reflection: field %s on %s is not settable", a.name, target.Type())
	}
	if !value.IsValid() {
		value = reflect.Zero(a.typ)
	}
	if !value.Type().AssignableTo(a.typ) {
		if value.Type().ConvertibleTo(a.typ) {
			value = value.Convert(a.typ)
		} else {
			return fmt.Errorf("reflection: cannot assign %s to field %s (%s)", value.Type(), a.name, a.typ)
		}
	}
	v.Set(value)
	return nil
}

func (a *fieldAccessor) Type() reflect.Type { return a.typ }
func (a *fieldAccessor) sealed()            {}

// resolve walks the field index chain, dereferencing pointers. When writing,
// nil intermediate struct pointers are allocated along the way.
func (a *fieldAccessor) resolve(target reflect.Value, writing bool) (reflect.Value, error) {
	v := target
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("reflection: nil pointer while accessing field %s", a.name)
		}
		v = v.Elem()
	}
	for _, i := range a.index {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !writing || !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("reflection: nil embedded pointer while accessing field %s", a.name)
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, nil
}
