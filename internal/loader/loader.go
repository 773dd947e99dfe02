package loader

import (
	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/node"
)

// Loader drives a full load: an optional configuration document plus any
// number of mapper sources, in any order. Cross-source references resolve
// whenever their targets appear; Finish reports whatever never resolved.
type Loader struct {
	config *Configuration
	vars   map[string]string
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger installs a logger on the underlying configuration.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.config.SetLogger(l) }
}

// WithVars seeds the ${} substitution table. These values win over
// <properties> entries declared in documents.
func WithVars(vars map[string]string) Option {
	return func(ld *Loader) {
		for k, v := range vars {
			ld.vars[k] = v
		}
	}
}

// New returns a Loader over a fresh configuration.
func New(opts ...Option) *Loader {
	ld := &Loader{
		config: NewConfiguration(),
		vars:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Configuration returns the configuration being loaded into.
func (ld *Loader) Configuration() *Configuration { return ld.config }

// RegisterType makes a Go type addressable from documents under the given
// alias. Pass a value of the type; pointers are unwrapped.
func (ld *Loader) RegisterType(alias string, value interface{}) error {
	return ld.config.Aliases().RegisterValue(alias, value)
}

// LoadConfigFile parses a <configuration> document and loads every mapper
// source it names, resolved relative to the document's directory.
func (ld *Loader) LoadConfigFile(path string) error {
	root, err := node.Parse(path, ld.vars)
	if err != nil {
		return configErrorf(path, "parse failed: %v", err)
	}
	builder := NewConfigBuilder(ld.config, path, root)
	if err := builder.Parse(); err != nil {
		return err
	}
	for _, res := range builder.MapperResources() {
		if err := ld.LoadMapperFile(res); err != nil {
			return err
		}
	}
	return nil
}

// LoadMapperFile parses one mapper document from disk.
func (ld *Loader) LoadMapperFile(path string) error {
	root, err := node.Parse(path, ld.vars)
	if err != nil {
		return configErrorf(path, "parse failed: %v", err)
	}
	return NewMapperBuilder(ld.config, path, root).Parse()
}

// LoadMapperBytes parses one mapper document from memory. The resource name
// only identifies the source in errors and duplicate-load checks.
func (ld *Loader) LoadMapperBytes(resource string, data []byte) error {
	root, err := node.ParseBytes(data, ld.vars)
	if err != nil {
		return configErrorf(resource, "parse failed: %v", err)
	}
	return NewMapperBuilder(ld.config, resource, root).Parse()
}

// Finish runs one last resolution pass and fails if any fragment still
// waits on a reference no source ever provided. The returned error lists
// every unresolved fragment and what it waited for.
func (ld *Loader) Finish() error {
	if err := ld.config.Pending().RunPass(); err != nil {
		return err
	}
	return ld.config.Pending().UnresolvedSummary()
}
