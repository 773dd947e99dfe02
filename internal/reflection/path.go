package reflection

import "strings"

// PropertyPath is one parsed segment of a dotted, optionally indexed property
// expression such as "order[0].items[0].name". The head segment is split into
// a bare name and an optional bracket index; the unparsed remainder is kept
// verbatim and re-parsed on demand by Next.
//
// A PropertyPath is immutable once parsed.
type PropertyPath struct {
	name        string
	index       string
	indexedName string
	children    string
	hasIndex    bool
	hasChildren bool
}

// ParsePath splits expr at the first '.' and the head token at '['/']'.
// Parsing never fails; malformed bracket expressions are passed through and
// left to the caller to validate.
func ParsePath(expr string) *PropertyPath {
	p := &PropertyPath{}
	if dot := strings.IndexByte(expr, '.'); dot > -1 {
		p.name = expr[:dot]
		p.children = expr[dot+1:]
		p.hasChildren = true
	} else {
		p.name = expr
	}
	p.indexedName = p.name
	if bracket := strings.IndexByte(p.name, '['); bracket > -1 {
		if end := strings.IndexByte(p.name, ']'); end > bracket {
			p.index = p.name[bracket+1 : end]
			p.hasIndex = true
		}
		p.name = p.name[:bracket]
	}
	return p
}

// Name returns the head segment with any bracket suffix stripped.
func (p *PropertyPath) Name() string { return p.name }

// Index returns the content of the head segment's bracket suffix: an array
// ordinal or a map key. HasIndex reports whether one was present.
func (p *PropertyPath) Index() string { return p.index }

// HasIndex reports whether the head segment carried a bracket suffix.
func (p *PropertyPath) HasIndex() bool { return p.hasIndex }

// IndexedName returns the head segment including its bracket suffix.
func (p *PropertyPath) IndexedName() string { return p.indexedName }

// Children returns the unparsed remainder after the first '.'.
func (p *PropertyPath) Children() string { return p.children }

// HasNext reports whether the expression had a remainder after the first '.'.
func (p *PropertyPath) HasNext() bool { return p.hasChildren }

// Next parses the remainder into its own PropertyPath. Callers must check
// HasNext first; calling Next on a terminal segment panics.
func (p *PropertyPath) Next() *PropertyPath {
	if !p.hasChildren {
		panic("reflection: Next called on terminal property path segment")
	}
	return ParsePath(p.children)
}
