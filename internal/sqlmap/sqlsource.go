package sqlmap

import (
	"strings"
)

// ParameterMapping is one #{...} placeholder: the property path whose value
// fills the corresponding ? in the bound SQL.
type ParameterMapping struct {
	// Property is the dotted, optionally indexed path into the parameter
	// object.
	Property string
}

// BoundSQL is executable SQL text plus the ordered parameter mappings its
// placeholders expect.
type BoundSQL struct {
	SQL        string
	Parameters []*ParameterMapping
}

// SQLSource holds statement text with #{path} placeholders already lowered to
// driver ? markers. ${...} substitution happens earlier, while the mapper
// document is read, so the source is static by the time it is built.
type SQLSource struct {
	sql      string
	mappings []*ParameterMapping
}

// NewSQLSource parses raw statement text, replacing each #{path} placeholder
// with ? and recording the property mapping in order. Unterminated
// placeholders are passed through verbatim.
func NewSQLSource(raw string) *SQLSource {
	var (
		b        strings.Builder
		mappings []*ParameterMapping
	)
	for {
		start := strings.Index(raw, "#{")
		if start < 0 {
			b.WriteString(raw)
			break
		}
		end := strings.Index(raw[start:], "}")
		if end < 0 {
			b.WriteString(raw)
			break
		}
		end += start
		b.WriteString(raw[:start])
		b.WriteByte('?')
		property := strings.TrimSpace(raw[start+2 : end])
		mappings = append(mappings, &ParameterMapping{Property: property})
		raw = raw[end+1:]
	}
	return &SQLSource{sql: collapseSpace(b.String()), mappings: mappings}
}

// BoundSQL returns the lowered SQL and its parameter mappings.
func (s *SQLSource) BoundSQL() *BoundSQL {
	return &BoundSQL{SQL: s.sql, Parameters: s.mappings}
}

// SQL returns the lowered statement text.
func (s *SQLSource) SQL() string { return s.sql }

// collapseSpace normalizes the whitespace runs XML bodies carry into single
// spaces so logged SQL stays readable.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
