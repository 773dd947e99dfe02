package reflection

import (
	"fmt"
	"reflect"
)

// CopyProperties copies every property readable on src and writable on dst
// whose value type is assignable, using the descriptor accessors of both
// shapes. dst must be a non-nil pointer. Properties only one side declares
// are skipped.
func CopyProperties(src, dst interface{}, cache *DescriptorCache) error {
	sv := indirect(reflect.ValueOf(src))
	if !sv.IsValid() {
		return fmt.Errorf("reflection: copy source is nil")
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("reflection: copy destination must be a non-nil pointer, got %T", dst)
	}
	dv = dv.Elem()

	srcDesc, err := cache.Descriptor(sv.Type())
	if err != nil {
		return err
	}
	dstDesc, err := cache.Descriptor(dv.Type())
	if err != nil {
		return err
	}

	for _, name := range dstDesc.SetterNames() {
		if !srcDesc.HasGetter(name) {
			continue
		}
		from, err := srcDesc.GetterType(name)
		if err != nil {
			continue
		}
		to, err := dstDesc.SetterType(name)
		if err != nil || !from.AssignableTo(to) {
			continue
		}
		getter, err := srcDesc.Getter(name)
		if err != nil {
			continue
		}
		value, err := getter.Get(sv)
		if err != nil {
			return fmt.Errorf("reflection: reading %q: %w", name, err)
		}
		setter, err := dstDesc.Setter(name)
		if err != nil {
			continue
		}
		if err := setter.Set(dv, value); err != nil {
			return fmt.Errorf("reflection: writing %q: %w", name, err)
		}
	}
	return nil
}
