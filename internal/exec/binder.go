package exec

import (
	"reflect"

	"github.com/quillmap/quill/internal/reflection"
	"github.com/quillmap/quill/internal/sqlmap"
	"github.com/quillmap/quill/internal/types"
)

// binder turns a bound statement plus an input value into the positional
// driver arguments, navigating the input with property paths.
type binder struct {
	descriptors *reflection.DescriptorCache
	handlers    *types.Registry
}

func (b *binder) args(bound *sqlmap.BoundSQL, param interface{}) ([]interface{}, error) {
	if len(bound.Parameters) == 0 {
		return nil, nil
	}
	out := make([]interface{}, 0, len(bound.Parameters))
	meta := b.metaFor(param)
	for _, pm := range bound.Parameters {
		value, err := b.valueFor(meta, param, pm.Property, len(bound.Parameters))
		if err != nil {
			return nil, &BindError{Property: pm.Property, Err: err}
		}
		if value != nil {
			h := b.handlers.Handler(reflect.TypeOf(value))
			if value, err = h.SetParameter(value); err != nil {
				return nil, &BindError{Property: pm.Property, Err: err}
			}
		}
		out = append(out, value)
	}
	return out, nil
}

func (b *binder) metaFor(param interface{}) *reflection.MetaObject {
	if param == nil {
		return nil
	}
	return reflection.MetaObjectFor(param, b.descriptors)
}

// valueFor reads one property from the input. A scalar input feeding a
// single-placeholder statement binds directly, whatever the placeholder is
// named.
func (b *binder) valueFor(meta *reflection.MetaObject, param interface{}, property string, total int) (interface{}, error) {
	if param == nil {
		return nil, nil
	}
	if total == 1 && isScalar(param) {
		return param, nil
	}
	return meta.GetValue(property)
}

func isScalar(v interface{}) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return t.String() == "time.Time" || t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
	}
	return true
}
