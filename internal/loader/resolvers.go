package loader

import (
	"reflect"

	"github.com/quillmap/quill/internal/sqlmap"
)

// resultMapResolver retries a result-shape definition whose extends target
// was not available when the fragment was first admitted.
type resultMapResolver struct {
	assistant   *builderAssistant
	id          string
	typ         reflect.Type
	extends     string
	mappings    []*sqlmap.ResultMapping
	autoMapping bool
}

func (r *resultMapResolver) Resolve() error {
	_, err := r.assistant.addResultMap(r.id, r.typ, r.extends, r.mappings, r.autoMapping)
	return err
}

func (r *resultMapResolver) Identity() string { return r.assistant.qualify(r.id) }
func (r *resultMapResolver) Resource() string { return r.assistant.resource }

// cacheRefResolver retries a cache-delegation link whose target namespace has
// not declared its cache yet.
type cacheRefResolver struct {
	assistant *builderAssistant
	target    string
}

func (r *cacheRefResolver) Resolve() error {
	return r.assistant.useCacheRef(r.target)
}

func (r *cacheRefResolver) Identity() string {
	return r.assistant.namespace + " -> " + r.target
}
func (r *cacheRefResolver) Resource() string { return r.assistant.resource }

// statementResolver retries a statement definition by re-parsing its node;
// the node itself is the resumable state.
type statementResolver struct {
	builder *statementBuilder
}

func (r *statementResolver) Resolve() error {
	return r.builder.parseStatement()
}

func (r *statementResolver) Identity() string {
	return r.builder.assistant.qualify(r.builder.node.StringAttr("id", r.builder.node.Identifier()))
}
func (r *statementResolver) Resource() string { return r.builder.assistant.resource }
