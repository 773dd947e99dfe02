package loader

import (
	"time"

	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/node"
	"github.com/quillmap/quill/internal/sqlmap"
)

// MapperBuilder parses one mapper document. Fragments that reference
// identifiers not yet admitted are queued on the configuration's pending
// registry; Parse finishes by running one retry pass over every queue, since
// this source may have unblocked fragments from earlier sources.
type MapperBuilder struct {
	config    *Configuration
	assistant *builderAssistant
	root      *node.Node
	resource  string
}

// NewMapperBuilder wraps a parsed mapper document for loading into config.
func NewMapperBuilder(config *Configuration, resource string, root *node.Node) *MapperBuilder {
	return &MapperBuilder{
		config:    config,
		assistant: newBuilderAssistant(config, resource),
		root:      root,
		resource:  resource,
	}
}

// Parse loads the document and retries all pending fragments once. A
// malformed fragment aborts this source's load without corrupting state
// already resolved from other sources.
func (b *MapperBuilder) Parse() error {
	if !b.config.IsResourceLoaded(b.resource) {
		if err := b.configurationElement(); err != nil {
			return err
		}
		b.config.AddLoadedResource(b.resource)
	}
	return b.config.Pending().RunPass()
}

func (b *MapperBuilder) configurationElement() error {
	root := b.root
	if root.Name() != "mapper" {
		return configErrorf(b.resource, "expected <mapper> root element, found <%s>", root.Name())
	}
	if err := b.assistant.setNamespace(root.StringAttr("namespace", "")); err != nil {
		return err
	}

	if ref := root.ChildByPath("cache-ref"); ref != nil {
		if err := b.cacheRefElement(ref); err != nil {
			return err
		}
	}
	if c := root.ChildByPath("cache"); c != nil {
		if err := b.cacheElement(c); err != nil {
			return err
		}
	}
	for _, rm := range root.ChildrenByPath("resultMap") {
		if err := b.resultMapElement(rm); err != nil && !IsIncomplete(err) {
			return err
		}
	}
	for _, frag := range root.ChildrenByPath("sql") {
		if err := b.sqlElement(frag); err != nil {
			return err
		}
	}
	for _, kind := range []string{"select", "insert", "update", "delete"} {
		for _, stmt := range root.ChildrenByPath(kind) {
			if err := b.statementElement(stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

// cacheRefElement records the delegation link. An unavailable target queues
// the link for retry; a malformed ref aborts the source's load.
func (b *MapperBuilder) cacheRefElement(n *node.Node) error {
	target := n.StringAttr("namespace", "")
	resolver := &cacheRefResolver{assistant: b.assistant, target: target}
	if err := resolver.Resolve(); err != nil {
		if !IsIncomplete(err) {
			return err
		}
		b.config.Pending().Enqueue(FragmentCacheRef, resolver, err)
		b.config.Logger().Debug("cache-ref deferred",
			zap.String("namespace", b.assistant.namespace),
			zap.String("target", target))
	}
	return nil
}

func (b *MapperBuilder) cacheElement(n *node.Node) error {
	eviction := n.StringAttr("eviction", "PERPETUAL")
	size := n.IntAttr("size", 0)
	flushInterval := time.Duration(n.Int64Attr("flushInterval", 0)) * time.Millisecond
	redisAddr := ""
	if props := n.ChildrenAsSettings(); props != nil {
		redisAddr = props["addr"]
	}
	return b.assistant.useNewCache(eviction, size, flushInterval, redisAddr)
}

func (b *MapperBuilder) resultMapElement(n *node.Node) error {
	id := n.StringAttr("id", n.Identifier())
	typeAlias := n.StringAttr("type", "")
	if typeAlias == "" {
		return configErrorf(b.resource, "resultMap %q requires a type attribute", id)
	}
	typ, ok := b.config.Aliases().Resolve(typeAlias)
	if !ok {
		return configErrorf(b.resource, "resultMap %q references unknown type %q", id, typeAlias)
	}
	extends := n.StringAttr("extends", "")
	autoMapping := n.BoolAttr("autoMapping", b.config.Settings.AutoMappingEnabled)

	var mappings []*sqlmap.ResultMapping
	for _, child := range n.Children() {
		switch child.Name() {
		case "constructor":
			for _, arg := range child.Children() {
				flags := sqlmap.FlagConstructor
				if arg.Name() == "idArg" {
					flags |= sqlmap.FlagID
				}
				m, err := b.resultMappingFromNode(arg, "name", flags)
				if err != nil {
					return err
				}
				mappings = append(mappings, m)
			}
		case "id":
			m, err := b.resultMappingFromNode(child, "property", sqlmap.FlagID)
			if err != nil {
				return err
			}
			mappings = append(mappings, m)
		case "result", "association", "collection":
			m, err := b.resultMappingFromNode(child, "property", 0)
			if err != nil {
				return err
			}
			mappings = append(mappings, m)
		default:
			return configErrorf(b.resource, "resultMap %q has unsupported child <%s>", id, child.Name())
		}
	}

	resolver := &resultMapResolver{
		assistant:   b.assistant,
		id:          id,
		typ:         typ,
		extends:     extends,
		mappings:    mappings,
		autoMapping: autoMapping,
	}
	if err := resolver.Resolve(); err != nil {
		if IsIncomplete(err) {
			b.config.Pending().Enqueue(FragmentResultMap, resolver, err)
		}
		return err
	}
	return nil
}

func (b *MapperBuilder) resultMappingFromNode(n *node.Node, propertyAttr string, flags sqlmap.ResultFlag) (*sqlmap.ResultMapping, error) {
	property := n.StringAttr(propertyAttr, "")
	if property == "" {
		return nil, configErrorf(b.resource, "<%s> element requires a %s attribute", n.Name(), propertyAttr)
	}
	m := &sqlmap.ResultMapping{
		Property:        property,
		Column:          n.StringAttr("column", ""),
		NestedResultMap: b.assistant.qualify(n.StringAttr("resultMap", "")),
		Flags:           flags,
	}
	if alias := n.StringAttr("javaType", n.StringAttr("type", "")); alias != "" {
		t, ok := b.config.Aliases().Resolve(alias)
		if !ok {
			return nil, configErrorf(b.resource, "mapping %q references unknown type %q", property, alias)
		}
		m.Type = t
	}
	return m, nil
}

// sqlElement registers a reusable fragment under its namespaced id.
func (b *MapperBuilder) sqlElement(n *node.Node) error {
	id := n.StringAttr("id", "")
	if id == "" {
		return configErrorf(b.resource, "<sql> element requires an id attribute")
	}
	b.config.AddSQLFragment(b.assistant.qualify(id), n)
	return nil
}

// statementElement parses one statement, queuing it for retry when a
// reference it needs is not admitted yet.
func (b *MapperBuilder) statementElement(n *node.Node) error {
	builder := newStatementBuilder(b.config, b.assistant, n)
	if err := builder.parseStatement(); err != nil {
		if IsIncomplete(err) {
			b.config.Pending().Enqueue(FragmentStatement, &statementResolver{builder: builder}, err)
			return nil
		}
		return err
	}
	return nil
}
