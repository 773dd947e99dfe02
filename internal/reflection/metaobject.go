package reflection

import (
	"fmt"
	"reflect"
	"strconv"
)

// MetaObject walks property paths over a live value: structs and struct
// pointers through their Descriptor accessors, maps by key, slices and arrays
// by ordinal. It is the value-level counterpart of Meta, used when binding
// statement parameters and mapping result rows.
type MetaObject struct {
	value reflect.Value
	cache *DescriptorCache
}

// MetaObjectFor wraps value for property navigation.
func MetaObjectFor(value interface{}, cache *DescriptorCache) *MetaObject {
	return &MetaObject{value: reflect.ValueOf(value), cache: cache}
}

// Value returns the wrapped value.
func (m *MetaObject) Value() interface{} {
	if !m.value.IsValid() {
		return nil
	}
	return m.value.Interface()
}

// GetValue reads the value at path. Nil pointers and missing map keys resolve
// to nil rather than an error; a property that does not exist on the shape is
// an error.
func (m *MetaObject) GetValue(path string) (interface{}, error) {
	v, err := m.resolve(ParsePath(path), m.value)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

func (m *MetaObject) resolve(prop *PropertyPath, current reflect.Value) (reflect.Value, error) {
	v, err := m.segmentValue(prop, current)
	if err != nil || !v.IsValid() {
		return v, err
	}
	if prop.HasNext() {
		return m.resolve(prop.Next(), v)
	}
	return v, nil
}

func (m *MetaObject) segmentValue(prop *PropertyPath, current reflect.Value) (reflect.Value, error) {
	v, err := m.readProperty(prop.Name(), current)
	if err != nil || !v.IsValid() {
		return v, err
	}
	if prop.HasIndex() {
		return indexInto(v, prop.Index())
	}
	return v, nil
}

func (m *MetaObject) readProperty(name string, current reflect.Value) (reflect.Value, error) {
	current = indirect(current)
	if !current.IsValid() {
		return reflect.Value{}, nil
	}
	if current.Kind() == reflect.Map {
		key, err := mapKey(current.Type().Key(), name)
		if err != nil {
			return reflect.Value{}, err
		}
		elem := current.MapIndex(key)
		if !elem.IsValid() {
			return reflect.Value{}, nil
		}
		return unwrapInterface(elem), nil
	}
	desc, err := m.cache.Descriptor(current.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	getter, err := desc.Getter(name)
	if err != nil {
		return reflect.Value{}, err
	}
	return getter.Get(current)
}

// SetValue writes value at path, instantiating nil intermediate struct
// pointers and missing map entries along the way.
func (m *MetaObject) SetValue(path string, value interface{}) error {
	return m.assign(ParsePath(path), m.value, value)
}

func (m *MetaObject) assign(prop *PropertyPath, current reflect.Value, value interface{}) error {
	if prop.HasNext() {
		next, err := m.stepForWrite(prop, current)
		if err != nil {
			return err
		}
		return m.assign(prop.Next(), next, value)
	}
	return m.writeProperty(prop, current, value)
}

// stepForWrite resolves one intermediate segment, creating the nested value
// when it is nil and its type has a default constructor.
func (m *MetaObject) stepForWrite(prop *PropertyPath, current reflect.Value) (reflect.Value, error) {
	v, err := m.segmentValue(prop, current)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.IsValid() && !(v.Kind() == reflect.Ptr && v.IsNil()) {
		return v, nil
	}

	current = indirect(current)
	desc, err := m.cache.Descriptor(current.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	propType, err := desc.SetterType(prop.Name())
	if err != nil {
		return reflect.Value{}, err
	}
	nestedDesc, err := m.cache.Descriptor(propType)
	if err != nil {
		return reflect.Value{}, err
	}
	if !nestedDesc.HasDefaultConstructor() {
		return reflect.Value{}, fmt.Errorf("reflection: cannot instantiate intermediate property %q of type %s", prop.Name(), propType)
	}
	created, err := nestedDesc.Instantiate()
	if err != nil {
		return reflect.Value{}, err
	}
	if propType.Kind() != reflect.Ptr && created.Kind() == reflect.Ptr {
		created = created.Elem()
	}
	if err := m.writeProperty(ParsePath(prop.IndexedName()), current, created.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return m.segmentValue(prop, current)
}

func (m *MetaObject) writeProperty(prop *PropertyPath, current reflect.Value, value interface{}) error {
	current = indirect(current)
	if !current.IsValid() {
		return fmt.Errorf("reflection: cannot set %q on nil target", prop.IndexedName())
	}

	if prop.HasIndex() {
		container, err := m.readProperty(prop.Name(), current)
		if err != nil {
			return err
		}
		return setIndexed(container, prop.Index(), value)
	}

	if current.Kind() == reflect.Map {
		key, err := mapKey(current.Type().Key(), prop.Name())
		if err != nil {
			return err
		}
		current.SetMapIndex(key, reflect.ValueOf(value))
		return nil
	}

	desc, err := m.cache.Descriptor(current.Type())
	if err != nil {
		return err
	}
	setter, err := desc.Setter(prop.Name())
	if err != nil {
		return err
	}
	var v reflect.Value
	if value != nil {
		v = reflect.ValueOf(value)
	}
	return setter.Set(current, v)
}

func indexInto(container reflect.Value, index string) (reflect.Value, error) {
	container = indirect(container)
	if !container.IsValid() {
		return reflect.Value{}, nil
	}
	switch container.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(index)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("reflection: non-numeric index %q for %s", index, container.Type())
		}
		if i < 0 || i >= container.Len() {
			return reflect.Value{}, nil
		}
		return unwrapInterface(container.Index(i)), nil
	case reflect.Map:
		key, err := mapKey(container.Type().Key(), index)
		if err != nil {
			return reflect.Value{}, err
		}
		elem := container.MapIndex(key)
		if !elem.IsValid() {
			return reflect.Value{}, nil
		}
		return unwrapInterface(elem), nil
	}
	return reflect.Value{}, fmt.Errorf("reflection: cannot index into %s", container.Type())
}

func setIndexed(container reflect.Value, index string, value interface{}) error {
	container = indirect(container)
	if !container.IsValid() {
		return fmt.Errorf("reflection: cannot index into nil container")
	}
	switch container.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(index)
		if err != nil {
			return fmt.Errorf("reflection: non-numeric index %q for %s", index, container.Type())
		}
		if i < 0 || i >= container.Len() {
			return fmt.Errorf("reflection: index %d out of range for %s of length %d", i, container.Type(), container.Len())
		}
		elem := container.Index(i)
		if !elem.CanSet() {
			return fmt.Errorf("reflection: element %d of %s is not settable", i, container.Type())
		}
		elem.Set(reflect.ValueOf(value))
		return nil
	case reflect.Map:
		key, err := mapKey(container.Type().Key(), index)
		if err != nil {
			return err
		}
		container.SetMapIndex(key, reflect.ValueOf(value))
		return nil
	}
	return fmt.Errorf("reflection: cannot index into %s", container.Type())
}

func mapKey(keyType reflect.Type, raw string) (reflect.Value, error) {
	switch keyType.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(keyType), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("reflection: map key %q is not an integer", raw)
		}
		return reflect.ValueOf(i).Convert(keyType), nil
	}
	return reflect.Value{}, fmt.Errorf("reflection: unsupported map key type %s", keyType)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func unwrapInterface(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return v.Elem()
	}
	return v
}
