package reflection

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for accessor lookups
var (
	// ErrNoSuchAccessor is returned when a property has no getter or setter
	ErrNoSuchAccessor = errors.New("no such accessor")

	// ErrAmbiguousAccessor is returned when two accessor candidates for the
	// same property have unrelated types
	ErrAmbiguousAccessor = errors.New("ambiguous accessor")
)

// NoSuchAccessorError reports a getter or setter query for a property name
// that was never discovered on the type.
type NoSuchAccessorError struct {
	Type     reflect.Type
	Property string
	Setter   bool
}

// Error implements the error interface
func (e *NoSuchAccessorError) Error() string {
	kind := "getter"
	if e.Setter {
		kind = "setter"
	}
	return fmt.Sprintf("there is no %s for property %q in %s", kind, e.Property, e.Type)
}

// Unwrap allows errors.Is(err, ErrNoSuchAccessor)
func (e *NoSuchAccessorError) Unwrap() error {
	return ErrNoSuchAccessor
}

// AmbiguousAccessorError reports two accessor candidates with unrelated types
// for the same property. The type cannot be introspected.
type AmbiguousAccessorError struct {
	Type     reflect.Type
	Property string
	First    reflect.Type
	Second   reflect.Type
	Setter   bool
}

// Error implements the error interface
func (e *AmbiguousAccessorError) Error() string {
	kind := "getter"
	if e.Setter {
		kind = "setter"
	}
	return fmt.Sprintf("ambiguous %s for property %q in %s: candidate types %s and %s are unrelated",
		kind, e.Property, e.Type, e.First, e.Second)
}

// Unwrap allows errors.Is(err, ErrAmbiguousAccessor)
func (e *AmbiguousAccessorError) Unwrap() error {
	return ErrAmbiguousAccessor
}
