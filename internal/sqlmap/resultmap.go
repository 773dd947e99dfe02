package sqlmap

import (
	"reflect"
	"strings"
)

// ResultFlag marks the role of one result mapping.
type ResultFlag int

const (
	// FlagID marks a mapping as part of the row identity.
	FlagID ResultFlag = 1 << iota
	// FlagConstructor marks a mapping bound through construction rather than
	// a property write.
	FlagConstructor
)

// ResultMapping binds one column of a result row to one property (or
// constructor argument) of the result type.
type ResultMapping struct {
	// Property is the target property path on the result type.
	Property string
	// Column is the source column name.
	Column string
	// Type is the declared value type, nil when inferred from the property.
	Type reflect.Type
	// NestedResultMap references another result map for association and
	// collection children, empty otherwise.
	NestedResultMap string
	// Flags carries the ID/Constructor markers.
	Flags ResultFlag
}

// IsID reports whether the mapping participates in row identity.
func (m *ResultMapping) IsID() bool { return m.Flags&FlagID != 0 }

// IsConstructor reports whether the mapping is constructor-bound.
func (m *ResultMapping) IsConstructor() bool { return m.Flags&FlagConstructor != 0 }

// ResultMap is one named result shape: a target type plus the ordered column
// mappings, with any extends chain already merged in at resolution time.
type ResultMap struct {
	// ID is the full namespaced result map id.
	ID string
	// Type is the result object type.
	Type reflect.Type
	// Mappings are the column bindings in declaration order, parents first.
	Mappings []*ResultMapping
	// MappedColumns indexes the columns claimed by explicit mappings,
	// lowercased for case-insensitive lookup.
	MappedColumns map[string]bool
	// AutoMapping enables column-to-property auto mapping for columns no
	// explicit mapping claims.
	AutoMapping bool
	// Resource is the originating mapper source.
	Resource string
}

// NewResultMap finalizes a result map, building the mapped column index.
func NewResultMap(id string, typ reflect.Type, mappings []*ResultMapping, autoMapping bool, resource string) *ResultMap {
	rm := &ResultMap{
		ID:            id,
		Type:          typ,
		Mappings:      mappings,
		MappedColumns: make(map[string]bool, len(mappings)),
		AutoMapping:   autoMapping,
		Resource:      resource,
	}
	for _, m := range mappings {
		if m.Column != "" {
			rm.MappedColumns[strings.ToLower(m.Column)] = true
		}
	}
	return rm
}
