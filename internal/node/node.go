// Package node exposes parsed mapper documents as a generic attributed tree:
// named attributes with typed coercion, ordered children, and descendant
// queries by path expression. It is the only package that touches the XML
// library; everything above it operates on Node values.
package node

import (
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/cast"
)

// Node is one element of a parsed configuration document plus the variable
// set used for ${...} substitution in attribute values and text bodies.
type Node struct {
	el   *etree.Element
	vars map[string]string
}

// Parse reads an XML document from a file and returns its root node.
func Parse(path string, vars map[string]string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("node: reading %s: %w", path, err)
	}
	return ParseBytes(data, vars)
}

// ParseBytes parses an XML document held in memory.
func ParseBytes(data []byte, vars map[string]string) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("node: parsing document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("node: document has no root element")
	}
	if vars == nil {
		vars = make(map[string]string)
	}
	return &Node{el: root, vars: vars}, nil
}

// Name returns the element name.
func (n *Node) Name() string { return n.el.Tag }

// Vars returns the substitution variable set shared by this tree.
func (n *Node) Vars() map[string]string { return n.vars }

// SetVar adds a substitution variable, visible to all nodes of the tree.
func (n *Node) SetVar(key, value string) { n.vars[key] = value }

// Children returns the ordered child elements.
func (n *Node) Children() []*Node {
	elems := n.el.ChildElements()
	out := make([]*Node, len(elems))
	for i, el := range elems {
		out[i] = &Node{el: el, vars: n.vars}
	}
	return out
}

// ChildrenByPath evaluates an etree path expression relative to this node and
// returns the matching descendants in document order.
func (n *Node) ChildrenByPath(path string) []*Node {
	elems := n.el.FindElements(path)
	out := make([]*Node, len(elems))
	for i, el := range elems {
		out[i] = &Node{el: el, vars: n.vars}
	}
	return out
}

// ChildByPath returns the first match of path, or nil.
func (n *Node) ChildByPath(path string) *Node {
	el := n.el.FindElement(path)
	if el == nil {
		return nil
	}
	return &Node{el: el, vars: n.vars}
}

// StringAttr returns the named attribute after variable substitution, or def
// when the attribute is absent.
func (n *Node) StringAttr(name, def string) string {
	attr := n.el.SelectAttr(name)
	if attr == nil {
		return def
	}
	return n.substitute(attr.Value)
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	return n.el.SelectAttr(name) != nil
}

// IntAttr returns the named attribute coerced to int, or def when absent or
// not numeric.
func (n *Node) IntAttr(name string, def int) int {
	attr := n.el.SelectAttr(name)
	if attr == nil {
		return def
	}
	v, err := cast.ToIntE(n.substitute(attr.Value))
	if err != nil {
		return def
	}
	return v
}

// Int64Attr returns the named attribute coerced to int64.
func (n *Node) Int64Attr(name string, def int64) int64 {
	attr := n.el.SelectAttr(name)
	if attr == nil {
		return def
	}
	v, err := cast.ToInt64E(n.substitute(attr.Value))
	if err != nil {
		return def
	}
	return v
}

// BoolAttr returns the named attribute coerced to bool.
func (n *Node) BoolAttr(name string, def bool) bool {
	attr := n.el.SelectAttr(name)
	if attr == nil {
		return def
	}
	v, err := cast.ToBoolE(n.substitute(attr.Value))
	if err != nil {
		return def
	}
	return v
}

// Body returns the concatenated text content of this element and its
// descendants, with variables substituted and surrounding space trimmed.
func (n *Node) Body() string {
	var b strings.Builder
	collectText(n.el, &b)
	return strings.TrimSpace(n.substitute(b.String()))
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.CharData:
			b.WriteString(c.Data)
		case *etree.Element:
			collectText(c, b)
		}
	}
}

// Part is one ordered piece of an element's content: either raw text or a
// child element, never both.
type Part struct {
	Text string
	Node *Node
}

// Parts returns the element's direct content in document order, interleaving
// text runs and child elements. Statement bodies use this to expand include
// references in place.
func (n *Node) Parts() []Part {
	var out []Part
	for _, child := range n.el.Child {
		switch c := child.(type) {
		case *etree.CharData:
			out = append(out, Part{Text: n.substitute(c.Data)})
		case *etree.Element:
			out = append(out, Part{Node: &Node{el: c, vars: n.vars}})
		}
	}
	return out
}

// ChildrenAsSettings reads name/value attribute pairs off the child elements,
// the shape used by <settings> and <properties> blocks.
func (n *Node) ChildrenAsSettings() map[string]string {
	out := make(map[string]string)
	for _, child := range n.Children() {
		name := child.StringAttr("name", "")
		if name == "" {
			continue
		}
		out[name] = child.StringAttr("value", "")
	}
	return out
}

// Identifier derives a stable identity for fragments that lack an id
// attribute, from the element names and ids on the path to the root.
func (n *Node) Identifier() string {
	var parts []string
	// the walk stops at the document pseudo-element, whose tag is empty
	for el := n.el; el != nil && el.Tag != ""; el = el.Parent() {
		part := el.Tag
		if id := el.SelectAttrValue("id", ""); id != "" {
			part += "[" + id + "]"
		} else if value := el.SelectAttrValue("value", ""); value != "" {
			part += "[" + value + "]"
		} else if property := el.SelectAttrValue("property", ""); property != "" {
			part += "[" + property + "]"
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "_")
}

// substitute replaces ${name} references with values from the variable set.
// Unknown references are left verbatim.
func (n *Node) substitute(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		name := s[start+2 : end]
		if v, ok := n.vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}
