package reflection

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
)

// Descriptor is a cached view of one type's property shape: every readable and
// writable property, the accessor backing it, and its declared value type.
// Built once per type and immutable afterwards; use a DescriptorCache to share
// instances.
//
// Properties come from two sources, methods first:
//
//   - GetX()/IsX() methods with no arguments and one result contribute a
//     readable property "x"; SetX(v) methods with one argument contribute a
//     writable property "x". Promoted methods of embedded types participate,
//     with the outer declaration shadowing the inner one.
//   - Exported struct fields (including promoted fields) fill in read/write
//     access for names no method already covers.
//
// Names carrying the XXX_ housekeeping prefix are excluded from both sets.
type Descriptor struct {
	typ reflect.Type

	getters     map[string]Accessor
	setters     map[string]Accessor
	getterTypes map[string]reflect.Type
	setterTypes map[string]reflect.Type

	readables []string
	writables []string

	// case-insensitive index over the union of readable and writable names
	caseInsensitive map[string]string
}

type accessorCandidate struct {
	accessor Accessor
	typ      reflect.Type
	isPrefix bool
}

// NewDescriptor introspects t and builds its property model. Pointer types are
// unwrapped to their element type first. Construction fails with an
// AmbiguousAccessorError when conflicting candidates cannot be reconciled.
func NewDescriptor(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	d := &Descriptor{
		typ:             t,
		getters:         make(map[string]Accessor),
		setters:         make(map[string]Accessor),
		getterTypes:     make(map[string]reflect.Type),
		setterTypes:     make(map[string]reflect.Type),
		caseInsensitive: make(map[string]string),
	}
	if err := d.addGetterMethods(); err != nil {
		return nil, err
	}
	if err := d.addSetterMethods(); err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Struct {
		d.addFields(t, nil, make(map[string]bool))
	}
	for name := range d.getters {
		d.readables = append(d.readables, name)
		d.caseInsensitive[strings.ToUpper(name)] = name
	}
	for name := range d.setters {
		d.writables = append(d.writables, name)
		d.caseInsensitive[strings.ToUpper(name)] = name
	}
	sort.Strings(d.readables)
	sort.Strings(d.writables)
	return d, nil
}

// methodSet returns the method set of *T so both value and pointer receiver
// methods are visible. Go method sets already dedupe shadowed promotions by
// name, which stands in for signature-level deduplication.
func (d *Descriptor) methodSet() reflect.Type {
	return reflect.PtrTo(d.typ)
}

func (d *Descriptor) addGetterMethods() error {
	ms := d.methodSet()
	candidates := make(map[string][]accessorCandidate)
	for i := 0; i < ms.NumMethod(); i++ {
		m := ms.Method(i)
		// receiver only, single result
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		name, isPrefix, ok := getterProperty(m.Name)
		if !ok || !isValidPropertyName(name) {
			continue
		}
		candidates[name] = append(candidates[name], accessorCandidate{
			accessor: newGetterMethod(m),
			typ:      m.Type.Out(0),
			isPrefix: isPrefix,
		})
	}
	return d.resolveGetterConflicts(candidates)
}

func (d *Descriptor) resolveGetterConflicts(candidates map[string][]accessorCandidate) error {
	for name, list := range candidates {
		var winner *accessorCandidate
		for i := range list {
			c := &list[i]
			if winner == nil {
				winner = c
				continue
			}
			switch {
			case c.typ == winner.typ:
				if c.typ.Kind() != reflect.Bool {
					return &AmbiguousAccessorError{Type: d.typ, Property: name, First: winner.typ, Second: c.typ}
				}
				if c.isPrefix {
					winner = c
				}
			case winner.typ.AssignableTo(c.typ):
				// winner is the more specific type, keep it
			case c.typ.AssignableTo(winner.typ):
				winner = c
			default:
				return &AmbiguousAccessorError{Type: d.typ, Property: name, First: winner.typ, Second: c.typ}
			}
		}
		d.getters[name] = winner.accessor
		d.getterTypes[name] = winner.typ
	}
	return nil
}

func (d *Descriptor) addSetterMethods() error {
	ms := d.methodSet()
	candidates := make(map[string][]accessorCandidate)
	for i := 0; i < ms.NumMethod(); i++ {
		m := ms.Method(i)
		// receiver plus exactly one argument
		if m.Type.NumIn() != 2 {
			continue
		}
		name, ok := setterProperty(m.Name)
		if !ok || !isValidPropertyName(name) {
			continue
		}
		candidates[name] = append(candidates[name], accessorCandidate{
			accessor: newSetterMethod(m),
			typ:      m.Type.In(1),
		})
	}
	return d.resolveSetterConflicts(candidates)
}

func (d *Descriptor) resolveSetterConflicts(candidates map[string][]accessorCandidate) error {
	for name, list := range candidates {
		getterType := d.getterTypes[name]
		var match *accessorCandidate
		var ambiguity error
		for i := range list {
			c := &list[i]
			if getterType != nil && c.typ == getterType {
				// read/write symmetry is the best match
				match = c
				ambiguity = nil
				break
			}
			if ambiguity == nil {
				var err error
				match, err = pickBetterSetter(d.typ, name, match, c)
				if err != nil {
					match = nil
					ambiguity = err
				}
			}
		}
		if match == nil {
			return ambiguity
		}
		d.setters[name] = match.accessor
		d.setterTypes[name] = match.typ
	}
	return nil
}

func pickBetterSetter(owner reflect.Type, name string, current, candidate *accessorCandidate) (*accessorCandidate, error) {
	if current == nil {
		return candidate, nil
	}
	if candidate.typ.AssignableTo(current.typ) {
		return candidate, nil
	}
	if current.typ.AssignableTo(candidate.typ) {
		return current, nil
	}
	return nil, &AmbiguousAccessorError{
		Type: owner, Property: name, First: current.typ, Second: candidate.typ, Setter: true,
	}
}

// addFields walks exported struct fields, recursing into embedded structs so
// promoted fields participate. The outer declaration shadows inner ones, and
// method-backed accessors added earlier always win over fields.
func (d *Descriptor) addFields(t reflect.Type, index []int, seen map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				d.addFields(ft, append(append([]int(nil), index...), i), seen)
				continue
			}
		}
		if f.PkgPath != "" {
			// unexported fields are not reachable through the reflect API
			continue
		}
		name := decapitalize(f.Name)
		if !isValidPropertyName(name) || seen[name] {
			continue
		}
		seen[name] = true
		chain := append(append([]int(nil), index...), i)
		acc := newFieldAccessor(f, chain)
		if _, ok := d.getters[name]; !ok {
			d.getters[name] = acc
			d.getterTypes[name] = f.Type
		}
		if _, ok := d.setters[name]; !ok {
			d.setters[name] = acc
			d.setterTypes[name] = f.Type
		}
	}
}

// Type returns the introspected type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// GetterNames returns the sorted readable property names.
func (d *Descriptor) GetterNames() []string { return d.readables }

// SetterNames returns the sorted writable property names.
func (d *Descriptor) SetterNames() []string { return d.writables }

// resolve maps name onto the canonical property name when no property
// matches it exactly, so lookups accept Go field casing ("Name", "ID")
// alongside the canonical decapitalized form.
func (d *Descriptor) resolve(name string) string {
	if _, ok := d.getters[name]; ok {
		return name
	}
	if _, ok := d.setters[name]; ok {
		return name
	}
	if canonical, ok := d.caseInsensitive[strings.ToUpper(name)]; ok {
		return canonical
	}
	return name
}

// HasGetter reports whether name is a readable property. Names resolve
// case-insensitively to the canonical property.
func (d *Descriptor) HasGetter(name string) bool {
	_, ok := d.getters[d.resolve(name)]
	return ok
}

// HasSetter reports whether name is a writable property. Names resolve
// case-insensitively to the canonical property.
func (d *Descriptor) HasSetter(name string) bool {
	_, ok := d.setters[d.resolve(name)]
	return ok
}

// GetterType returns the declared type of a readable property.
func (d *Descriptor) GetterType(name string) (reflect.Type, error) {
	t, ok := d.getterTypes[d.resolve(name)]
	if !ok {
		return nil, &NoSuchAccessorError{Type: d.typ, Property: name}
	}
	return t, nil
}

// SetterType returns the declared type of a writable property.
func (d *Descriptor) SetterType(name string) (reflect.Type, error) {
	t, ok := d.setterTypes[d.resolve(name)]
	if !ok {
		return nil, &NoSuchAccessorError{Type: d.typ, Property: name, Setter: true}
	}
	return t, nil
}

// Getter returns the read accessor for name.
func (d *Descriptor) Getter(name string) (Accessor, error) {
	a, ok := d.getters[d.resolve(name)]
	if !ok {
		return nil, &NoSuchAccessorError{Type: d.typ, Property: name}
	}
	return a, nil
}

// Setter returns the write accessor for name.
func (d *Descriptor) Setter(name string) (Accessor, error) {
	a, ok := d.setters[d.resolve(name)]
	if !ok {
		return nil, &NoSuchAccessorError{Type: d.typ, Property: name, Setter: true}
	}
	return a, nil
}

// FindPropertyName resolves name case-insensitively to the canonical
// discovered property name. The second result is false when no readable or
// writable property matches.
func (d *Descriptor) FindPropertyName(name string) (string, bool) {
	canonical, ok := d.caseInsensitive[strings.ToUpper(name)]
	return canonical, ok
}

// HasDefaultConstructor reports whether Instantiate can produce a fresh value
// of this type without arguments.
func (d *Descriptor) HasDefaultConstructor() bool {
	switch d.typ.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// Instantiate produces a new zero instance: a *T for structs, an empty map or
// slice for those kinds.
func (d *Descriptor) Instantiate() (reflect.Value, error) {
	switch d.typ.Kind() {
	case reflect.Struct:
		return reflect.New(d.typ), nil
	case reflect.Map:
		return reflect.MakeMap(d.typ), nil
	case reflect.Slice:
		return reflect.MakeSlice(d.typ, 0, 0), nil
	}
	return reflect.Value{}, fmt.Errorf("reflection: no default constructor for %s", d.typ)
}

// getterProperty derives a property name from a getter-style method name.
// The second result reports the Is prefix, used to break boolean ties.
func getterProperty(method string) (name string, isPrefix, ok bool) {
	switch {
	case strings.HasPrefix(method, "Get") && len(method) > 3:
		return decapitalize(method[3:]), false, true
	case strings.HasPrefix(method, "Is") && len(method) > 2:
		return decapitalize(method[2:]), true, true
	}
	return "", false, false
}

func setterProperty(method string) (string, bool) {
	if strings.HasPrefix(method, "Set") && len(method) > 3 {
		return decapitalize(method[3:]), true
	}
	return "", false
}

// decapitalize lowers the leading rune unless the second rune is also upper
// case, so acronym-led names like "URL" keep their casing.
func decapitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if len(r) > 1 && unicode.IsUpper(r[1]) {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isValidPropertyName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "XXX_") && !strings.HasPrefix(name, "_")
}

