package loader

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/cache"
	"github.com/quillmap/quill/internal/node"
	"github.com/quillmap/quill/internal/reflection"
	"github.com/quillmap/quill/internal/sqlmap"
	"github.com/quillmap/quill/internal/types"
)

// Settings are the tunables a <settings> block can assign. Names in the
// document are matched case-insensitively against these properties through
// the reflection layer, so an unknown setting is rejected before assignment.
type Settings struct {
	// UseActualParamNames enables source-derived parameter names.
	UseActualParamNames bool
	// MapUnderscoreToCamelCase matches column names like user_name to
	// properties like userName during auto mapping.
	MapUnderscoreToCamelCase bool
	// CacheEnabled gates every namespace cache globally.
	CacheEnabled bool
	// AutoMappingEnabled applies unclaimed columns to matching properties.
	AutoMappingEnabled bool
}

// DefaultSettings mirror the defaults the mapper documents assume.
func DefaultSettings() Settings {
	return Settings{
		UseActualParamNames: true,
		CacheEnabled:        true,
		AutoMappingEnabled:  true,
	}
}

// Environment is the datastore a loaded configuration executes against.
type Environment struct {
	ID     string
	Driver string
	DSN    string
}

// Configuration is the root registry a load converges into: every resolved
// statement, result shape, and cache, plus the shared reflection cache, type
// aliases, type handlers, and the pending registry driving deferred
// resolution.
type Configuration struct {
	mu sync.RWMutex

	Settings    Settings
	Environment Environment

	statements   map[string]*sqlmap.MappedStatement
	resultMaps   map[string]*sqlmap.ResultMap
	caches       map[string]cache.Cache
	cacheRefs    map[string]string
	sqlFragments map[string]*node.Node
	loaded       map[string]bool

	aliases     *TypeAliases
	descriptors *reflection.DescriptorCache
	handlers    *types.Registry
	pending     *PendingRegistry

	logger *zap.Logger
}

// NewConfiguration returns an empty configuration with default settings and
// a no-op logger.
func NewConfiguration() *Configuration {
	return &Configuration{
		Settings:     DefaultSettings(),
		statements:   make(map[string]*sqlmap.MappedStatement),
		resultMaps:   make(map[string]*sqlmap.ResultMap),
		caches:       make(map[string]cache.Cache),
		cacheRefs:    make(map[string]string),
		sqlFragments: make(map[string]*node.Node),
		loaded:       make(map[string]bool),
		aliases:      NewTypeAliases(),
		descriptors:  reflection.NewDescriptorCache(),
		handlers:     types.NewRegistry(),
		pending:      NewPendingRegistry(),
		logger:       zap.NewNop(),
	}
}

// SetLogger installs the logger used during loading and execution.
func (c *Configuration) SetLogger(l *zap.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Logger returns the configured logger.
func (c *Configuration) Logger() *zap.Logger { return c.logger }

// Aliases returns the type alias registry.
func (c *Configuration) Aliases() *TypeAliases { return c.aliases }

// Descriptors returns the shared descriptor cache scope.
func (c *Configuration) Descriptors() *reflection.DescriptorCache { return c.descriptors }

// TypeHandlers returns the driver value conversion registry.
func (c *Configuration) TypeHandlers() *types.Registry { return c.handlers }

// Pending returns the deferred-resolution registry.
func (c *Configuration) Pending() *PendingRegistry { return c.pending }

// AddMappedStatement registers a resolved statement. Duplicate ids are a
// configuration error.
func (c *Configuration) AddMappedStatement(ms *sqlmap.MappedStatement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.statements[ms.ID]; ok {
		return configErrorf(ms.Resource, "duplicate statement id %q", ms.ID)
	}
	c.statements[ms.ID] = ms
	return nil
}

// MappedStatement looks a statement up by its full id.
func (c *Configuration) MappedStatement(id string) (*sqlmap.MappedStatement, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ms, ok := c.statements[id]
	return ms, ok
}

// StatementIDs returns the registered statement ids.
func (c *Configuration) StatementIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.statements))
	for id := range c.statements {
		out = append(out, id)
	}
	return out
}

// AddResultMap registers a resolved result shape. Duplicate ids are a
// configuration error.
func (c *Configuration) AddResultMap(rm *sqlmap.ResultMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.resultMaps[rm.ID]; ok {
		return configErrorf(rm.Resource, "duplicate result map id %q", rm.ID)
	}
	c.resultMaps[rm.ID] = rm
	return nil
}

// ResultMap looks a result shape up by its full id.
func (c *Configuration) ResultMap(id string) (*sqlmap.ResultMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rm, ok := c.resultMaps[id]
	return rm, ok
}

// AddCache installs a namespace cache.
func (c *Configuration) AddCache(namespace string, ch cache.Cache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caches[namespace] = ch
}

// Cache returns the cache owned by namespace, following at most one
// cache-ref delegation link.
func (c *Configuration) Cache(namespace string) (cache.Cache, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if target, ok := c.cacheRefs[namespace]; ok {
		namespace = target
	}
	ch, ok := c.caches[namespace]
	return ch, ok
}

// AddCacheRef records that namespace delegates its cache to target.
func (c *Configuration) AddCacheRef(namespace, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheRefs[namespace] = target
}

// AddSQLFragment registers a reusable <sql> fragment under its namespaced
// id. Re-registration keeps the first entry.
func (c *Configuration) AddSQLFragment(id string, n *node.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sqlFragments[id]; !ok {
		c.sqlFragments[id] = n
	}
}

// SQLFragment looks a reusable fragment up by id.
func (c *Configuration) SQLFragment(id string) (*node.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.sqlFragments[id]
	return n, ok
}

// IsResourceLoaded reports whether a source was already parsed.
func (c *Configuration) IsResourceLoaded(resource string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded[resource]
}

// AddLoadedResource marks a source as parsed.
func (c *Configuration) AddLoadedResource(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded[resource] = true
}

// applyNamespace qualifies a local id with its namespace. Ids already
// containing a dot are taken as fully qualified.
func applyNamespace(namespace, id string) string {
	if id == "" || namespace == "" || strings.Contains(id, ".") {
		return id
	}
	return namespace + "." + id
}
