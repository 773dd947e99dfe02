package loader

import (
	"reflect"
	"strings"
	"time"

	"github.com/quillmap/quill/internal/cache"
	"github.com/quillmap/quill/internal/sqlmap"
)

// builderAssistant carries the per-source state the mapper builders share:
// the current namespace and the cache the namespace's statements use. It owns
// the registrations that can fail with the not-yet-resolvable signal.
type builderAssistant struct {
	config    *Configuration
	resource  string
	namespace string

	// cacheName is the namespace whose cache this source's statements use,
	// empty until a <cache> or <cache-ref> element sets it.
	cacheName string
}

func newBuilderAssistant(config *Configuration, resource string) *builderAssistant {
	return &builderAssistant{config: config, resource: resource}
}

func (a *builderAssistant) setNamespace(namespace string) error {
	if namespace == "" {
		return configErrorf(a.resource, "mapper namespace cannot be empty")
	}
	a.namespace = namespace
	return nil
}

// qualify prefixes a local id with the current namespace.
func (a *builderAssistant) qualify(id string) string {
	return applyNamespace(a.namespace, id)
}

// useNewCache builds and registers this namespace's cache. The eviction
// alias selects the backend.
func (a *builderAssistant) useNewCache(eviction string, size int, flushInterval time.Duration, redisAddr string) error {
	cfg := cache.DefaultConfig(a.namespace)
	if size > 0 {
		cfg.Size = size
	}
	cfg.DefaultTTL = flushInterval

	var (
		backend cache.Cache
		err     error
	)
	switch strings.ToUpper(eviction) {
	case "", "PERPETUAL":
		backend = cache.NewMemoryCache(cfg)
	case "LRU":
		backend, err = cache.NewLRUCache(cfg)
	case "REDIS":
		backend, err = cache.NewRedisCache(cache.RedisConfig{Addr: redisAddr}, cfg)
	default:
		return configErrorf(a.resource, "unknown cache eviction %q", eviction)
	}
	if err != nil {
		return &ConfigurationError{Resource: a.resource, Message: "building cache", Err: err}
	}
	a.config.AddCache(a.namespace, backend)
	a.cacheName = a.namespace
	return nil
}

// useCacheRef delegates this namespace's cache to target. The target's cache
// not existing yet is the not-yet-resolvable signal, not an error.
func (a *builderAssistant) useCacheRef(target string) error {
	if target == "" {
		return configErrorf(a.resource, "cache-ref namespace cannot be empty")
	}
	if _, ok := a.config.Cache(target); !ok {
		return Incomplete(target)
	}
	a.config.AddCacheRef(a.namespace, target)
	a.cacheName = target
	return nil
}

// addResultMap merges the extends chain and registers the result map. A
// missing extends target raises the not-yet-resolvable signal.
func (a *builderAssistant) addResultMap(id string, typ reflect.Type, extends string, mappings []*sqlmap.ResultMapping, autoMapping bool) (*sqlmap.ResultMap, error) {
	fullID := a.qualify(id)
	merged := mappings
	if extends != "" {
		extends = a.qualify(extends)
		parent, ok := a.config.ResultMap(extends)
		if !ok {
			return nil, Incomplete(extends)
		}
		// parent mappings first, minus the ones this map overrides
		overridden := make(map[string]bool, len(mappings))
		for _, m := range mappings {
			overridden[m.Property] = true
		}
		merged = nil
		for _, m := range parent.Mappings {
			if !overridden[m.Property] {
				merged = append(merged, m)
			}
		}
		merged = append(merged, mappings...)
	}
	rm := sqlmap.NewResultMap(fullID, typ, merged, autoMapping, a.resource)
	if err := a.config.AddResultMap(rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// addMappedStatement finalizes a statement, wiring its result map and cache
// name, and registers it.
func (a *builderAssistant) addMappedStatement(ms *sqlmap.MappedStatement, resultMapID string) error {
	if resultMapID != "" {
		rm, ok := a.config.ResultMap(a.qualify(resultMapID))
		if !ok {
			return Incomplete(a.qualify(resultMapID))
		}
		ms.ResultMap = rm
	}
	ms.CacheName = a.cacheName
	ms.Resource = a.resource
	return a.config.AddMappedStatement(ms)
}
