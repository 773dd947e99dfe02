package reflection

import (
	"reflect"
	"strings"
)

// Meta navigates dotted, optionally indexed property paths across a chain of
// Descriptors. Descriptors for nested types are built lazily through the
// cache, only as far as the path requires. Meta itself is a stateless view
// and carries no lifecycle of its own.
type Meta struct {
	desc  *Descriptor
	cache *DescriptorCache
}

// MetaFor pairs a type with the cache used to resolve nested descriptors.
func MetaFor(t reflect.Type, cache *DescriptorCache) (*Meta, error) {
	d, err := cache.Descriptor(t)
	if err != nil {
		return nil, err
	}
	return &Meta{desc: d, cache: cache}, nil
}

// Descriptor returns the descriptor of the root type.
func (m *Meta) Descriptor() *Descriptor { return m.desc }

func (m *Meta) metaForProperty(name string) (*Meta, error) {
	t, err := m.desc.GetterType(name)
	if err != nil {
		return nil, err
	}
	return MetaFor(t, m.cache)
}

func (m *Meta) metaForSegment(prop *PropertyPath) (*Meta, error) {
	t, err := m.segmentGetterType(prop)
	if err != nil {
		return nil, err
	}
	return MetaFor(t, m.cache)
}

// GetterType resolves the declared type at the end of path, following
// readable properties. When an intermediate segment carries an index and its
// declared type is a homogeneous container, the container's element type is
// used for the recursion; interface-typed containers carry no element
// information and fall back to the container type unchanged.
func (m *Meta) GetterType(path string) (reflect.Type, error) {
	prop := ParsePath(path)
	if prop.HasNext() {
		sub, err := m.metaForSegment(prop)
		if err != nil {
			return nil, err
		}
		return sub.GetterType(prop.Children())
	}
	return m.segmentGetterType(prop)
}

func (m *Meta) segmentGetterType(prop *PropertyPath) (reflect.Type, error) {
	t, err := m.desc.GetterType(prop.Name())
	if err != nil {
		return nil, err
	}
	if prop.HasIndex() {
		if elem := elementType(t); elem != nil {
			return elem, nil
		}
	}
	return t, nil
}

// elementType resolves a container's declared element type, or nil when no
// element information is available.
func elementType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		elem := t.Elem()
		if elem.Kind() == reflect.Interface {
			return nil
		}
		return elem
	}
	return nil
}

// SetterType resolves the declared type at the end of path following writable
// properties. Indexed segments are addressed as whole containers here; there
// is no element-type unwrap on the write side.
func (m *Meta) SetterType(path string) (reflect.Type, error) {
	prop := ParsePath(path)
	if prop.HasNext() {
		sub, err := m.metaForProperty(prop.Name())
		if err != nil {
			return nil, err
		}
		return sub.SetterType(prop.Children())
	}
	return m.desc.SetterType(prop.Name())
}

// HasGetter reports whether every segment of path resolves through readable
// properties. A missing intermediate accessor short-circuits to false.
func (m *Meta) HasGetter(path string) bool {
	prop := ParsePath(path)
	if prop.HasNext() {
		if !m.desc.HasGetter(prop.Name()) {
			return false
		}
		sub, err := m.metaForSegment(prop)
		if err != nil {
			return false
		}
		return sub.HasGetter(prop.Children())
	}
	return m.desc.HasGetter(prop.Name())
}

// HasSetter reports whether every segment of path resolves through writable
// properties.
func (m *Meta) HasSetter(path string) bool {
	prop := ParsePath(path)
	if prop.HasNext() {
		if !m.desc.HasSetter(prop.Name()) {
			return false
		}
		sub, err := m.metaForProperty(prop.Name())
		if err != nil {
			return false
		}
		return sub.HasSetter(prop.Children())
	}
	return m.desc.HasSetter(prop.Name())
}

// FindProperty rebuilds path with each segment resolved case-insensitively to
// its canonical property name. Resolution truncates at the first segment that
// does not match; an unresolvable head yields the empty string.
func (m *Meta) FindProperty(path string) string {
	var b strings.Builder
	m.buildProperty(path, &b)
	return b.String()
}

// FindPropertyWithCamelCase strips underscores before resolving, so database
// column names like "user_name" match the property "userName".
func (m *Meta) FindPropertyWithCamelCase(path string) string {
	return m.FindProperty(strings.ReplaceAll(path, "_", ""))
}

func (m *Meta) buildProperty(path string, b *strings.Builder) {
	prop := ParsePath(path)
	if prop.HasNext() {
		canonical, ok := m.desc.FindPropertyName(prop.Name())
		if !ok {
			return
		}
		b.WriteString(canonical)
		b.WriteByte('.')
		sub, err := m.metaForProperty(canonical)
		if err != nil {
			return
		}
		sub.buildProperty(prop.Children(), b)
		return
	}
	if canonical, ok := m.desc.FindPropertyName(prop.Name()); ok {
		b.WriteString(canonical)
	}
}

// HasDefaultConstructor reports whether the root type can be instantiated
// without arguments.
func (m *Meta) HasDefaultConstructor() bool {
	return m.desc.HasDefaultConstructor()
}
