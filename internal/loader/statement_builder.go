package loader

import (
	"reflect"
	"strings"

	"github.com/quillmap/quill/internal/node"
	"github.com/quillmap/quill/internal/sqlmap"
)

// statementBuilder parses one select/insert/update/delete element into a
// MappedStatement. The node is kept so a deferred statement can be re-parsed
// on later passes.
type statementBuilder struct {
	config    *Configuration
	assistant *builderAssistant
	node      *node.Node
}

func newStatementBuilder(config *Configuration, assistant *builderAssistant, n *node.Node) *statementBuilder {
	return &statementBuilder{config: config, assistant: assistant, node: n}
}

func (b *statementBuilder) parseStatement() error {
	n := b.node
	resource := b.assistant.resource

	id := n.StringAttr("id", "")
	if id == "" {
		return configErrorf(resource, "<%s> element requires an id attribute", n.Name())
	}
	kind := sqlmap.KindFromElement(n.Name())
	if kind == sqlmap.KindUnknown {
		return configErrorf(resource, "unknown statement element <%s>", n.Name())
	}

	resultMapID := n.StringAttr("resultMap", "")
	resultTypeAlias := n.StringAttr("resultType", "")
	if resultMapID != "" && resultTypeAlias != "" {
		return configErrorf(resource, "statement %q sets both resultMap and resultType", id)
	}

	var resultType reflect.Type
	if resultTypeAlias != "" {
		t, ok := b.config.Aliases().Resolve(resultTypeAlias)
		if !ok {
			return configErrorf(resource, "statement %q references unknown result type %q", id, resultTypeAlias)
		}
		resultType = t
	}

	var parameterType reflect.Type
	if alias := n.StringAttr("parameterType", ""); alias != "" {
		t, ok := b.config.Aliases().Resolve(alias)
		if !ok {
			return configErrorf(resource, "statement %q references unknown parameter type %q", id, alias)
		}
		parameterType = t
	}

	sqlText, err := b.assembleSQL(n)
	if err != nil {
		return err
	}

	ms := &sqlmap.MappedStatement{
		ID:            b.assistant.qualify(id),
		Kind:          kind,
		Source:        sqlmap.NewSQLSource(sqlText),
		ParameterType: parameterType,
		ResultType:    resultType,
		UseCache:      n.BoolAttr("useCache", kind == sqlmap.KindSelect),
		FlushCache:    n.BoolAttr("flushCache", kind != sqlmap.KindSelect),
	}
	return b.assistant.addMappedStatement(ms, resultMapID)
}

// assembleSQL flattens the statement body, expanding <include refid> elements
// from the registered fragments. A fragment not registered yet raises the
// not-yet-resolvable signal so the statement is retried on a later pass.
func (b *statementBuilder) assembleSQL(n *node.Node) (string, error) {
	var sb strings.Builder
	for _, part := range n.Parts() {
		if part.Node == nil {
			sb.WriteString(part.Text)
			continue
		}
		child := part.Node
		if child.Name() != "include" {
			return "", configErrorf(b.assistant.resource, "unsupported element <%s> in statement body", child.Name())
		}
		refid := child.StringAttr("refid", "")
		if refid == "" {
			return "", configErrorf(b.assistant.resource, "<include> element requires a refid attribute")
		}
		fragment, ok := b.config.SQLFragment(b.assistant.qualify(refid))
		if !ok {
			return "", Incomplete(b.assistant.qualify(refid))
		}
		nested, err := b.assembleSQL(fragment)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ")
		sb.WriteString(nested)
		sb.WriteString(" ")
	}
	return sb.String(), nil
}
