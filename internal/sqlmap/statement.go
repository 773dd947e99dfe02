// Package sqlmap holds the mapping model a loaded configuration resolves
// into: mapped statements, result maps, parameter naming, and bound SQL.
package sqlmap

import "reflect"

// StatementKind identifies what a mapped statement does when executed.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
)

// String returns the mapper element name for the kind.
func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// KindFromElement maps a mapper element name to its statement kind.
func KindFromElement(name string) StatementKind {
	switch name {
	case "select":
		return KindSelect
	case "insert":
		return KindInsert
	case "update":
		return KindUpdate
	case "delete":
		return KindDelete
	default:
		return KindUnknown
	}
}

// MappedStatement is one executable statement definition, fully resolved:
// its namespaced id, the SQL source producing bound SQL, and the result and
// cache wiring the executor consults.
type MappedStatement struct {
	// ID is the full namespaced statement id, "namespace.localId".
	ID string
	// Kind is the statement verb.
	Kind StatementKind
	// Source produces BoundSQL for a parameter object.
	Source *SQLSource
	// ParameterType is the declared parameter shape, nil when untyped.
	ParameterType reflect.Type
	// ResultMap describes how rows map back onto result objects; nil for
	// statements without result shapes.
	ResultMap *ResultMap
	// ResultType is the inline result type when no result map was named.
	ResultType reflect.Type
	// CacheName is the namespace whose cache this statement uses, empty when
	// caching is off for the statement.
	CacheName string
	// UseCache gates cache reads for selects.
	UseCache bool
	// FlushCache clears the namespace cache before execution.
	FlushCache bool
	// Resource is the originating mapper source, kept for error reports.
	Resource string
}

// IsSelect reports whether the statement reads rather than mutates.
func (s *MappedStatement) IsSelect() bool { return s.Kind == KindSelect }

// RowBounds limits a select to a window of rows. It is a control parameter:
// a RowBounds argument never participates in parameter naming.
type RowBounds struct {
	Offset int
	Limit  int
}

// NoRowBounds applies no windowing.
var NoRowBounds = RowBounds{Offset: 0, Limit: -1}

// ResultHandler receives each mapped row instead of accumulating a slice.
// It is the second designated control parameter type.
type ResultHandler interface {
	HandleResult(row interface{}) error
}

// ResultHandlerFunc adapts a function to ResultHandler.
type ResultHandlerFunc func(row interface{}) error

// HandleResult implements ResultHandler.
func (f ResultHandlerFunc) HandleResult(row interface{}) error { return f(row) }
