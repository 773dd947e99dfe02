// Package types converts between Go property values and the driver-level
// values database/sql produces and consumes. Each Go type has one handler;
// the registry falls back to an identity handler for types it has no entry
// for.
package types

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// TypeHandler converts one Go type across the driver boundary.
type TypeHandler interface {
	// SetParameter converts a property value into a driver argument.
	SetParameter(value interface{}) (interface{}, error)

	// GetResult converts a scanned driver value into the handler's Go type.
	GetResult(value interface{}) (interface{}, error)
}

// stringHandler coerces scanned values to string.
type stringHandler struct{}

func (stringHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (stringHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	}
	return fmt.Sprintf("%v", v), nil
}

// intHandler coerces scanned values to int64, converted to the registered
// integer width by the caller.
type intHandler struct{}

func (intHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (intHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return int64(0), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("types: cannot convert %T to integer", v)
}

type floatHandler struct{}

func (floatHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (floatHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return float64(0), nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	case string:
		return strconv.ParseFloat(t, 64)
	}
	return nil, fmt.Errorf("types: cannot convert %T to float", v)
}

type boolHandler struct{}

func (boolHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (boolHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case []byte:
		return strconv.ParseBool(string(t))
	case string:
		return strconv.ParseBool(t)
	}
	return nil, fmt.Errorf("types: cannot convert %T to bool", v)
}

type timeHandler struct{}

func (timeHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (timeHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case []byte:
		return time.Parse(time.RFC3339, string(t))
	case string:
		return time.Parse(time.RFC3339, t)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return nil, fmt.Errorf("types: cannot convert %T to time.Time", v)
}

type bytesHandler struct{}

func (bytesHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }

func (bytesHandler) GetResult(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return []byte(nil), nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	return nil, fmt.Errorf("types: cannot convert %T to []byte", v)
}

// identityHandler passes values through untouched.
type identityHandler struct{}

func (identityHandler) SetParameter(v interface{}) (interface{}, error) { return v, nil }
func (identityHandler) GetResult(v interface{}) (interface{}, error)    { return v, nil }

// Registry maps Go types to their handlers.
type Registry struct {
	handlers map[reflect.Type]TypeHandler
	fallback TypeHandler
}

// NewRegistry builds a registry preloaded with the scalar handlers.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[reflect.Type]TypeHandler),
		fallback: identityHandler{},
	}
	r.Register(reflect.TypeOf(""), stringHandler{})
	for _, t := range []interface{}{int(0), int8(0), int16(0), int32(0), int64(0), uint(0), uint32(0), uint64(0)} {
		r.Register(reflect.TypeOf(t), intHandler{})
	}
	r.Register(reflect.TypeOf(float32(0)), floatHandler{})
	r.Register(reflect.TypeOf(float64(0)), floatHandler{})
	r.Register(reflect.TypeOf(false), boolHandler{})
	r.Register(reflect.TypeOf(time.Time{}), timeHandler{})
	r.Register(reflect.TypeOf([]byte(nil)), bytesHandler{})
	return r
}

// Register installs a handler for t, replacing any existing entry.
func (r *Registry) Register(t reflect.Type, h TypeHandler) {
	r.handlers[t] = h
}

// Handler returns the handler for t, unwrapping pointers, or the identity
// handler when none is registered.
func (r *Registry) Handler(t reflect.Type) TypeHandler {
	if t == nil {
		return r.fallback
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if h, ok := r.handlers[t]; ok {
		return h
	}
	return r.fallback
}

// Convert coerces a scanned driver value to the target property type using
// the registered handler, then a reflect conversion for width adjustments.
func (r *Registry) Convert(value interface{}, target reflect.Type) (interface{}, error) {
	if target == nil {
		return value, nil
	}
	h := r.Handler(target)
	converted, err := h.GetResult(value)
	if err != nil {
		return nil, err
	}
	if converted == nil {
		return nil, nil
	}
	ct := reflect.TypeOf(converted)
	unwrapped := target
	for unwrapped.Kind() == reflect.Ptr {
		unwrapped = unwrapped.Elem()
	}
	if ct != unwrapped && ct.ConvertibleTo(unwrapped) {
		converted = reflect.ValueOf(converted).Convert(unwrapped).Interface()
	}
	if target.Kind() == reflect.Ptr {
		ptr := reflect.New(unwrapped)
		ptr.Elem().Set(reflect.ValueOf(converted))
		return ptr.Interface(), nil
	}
	return converted, nil
}
