package loader

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// TypeAliases resolves the short type names configuration documents use to
// registered Go types. Lookups are case-insensitive. Scalar aliases are
// preinstalled; application types must be registered before the documents
// referencing them are loaded.
type TypeAliases struct {
	mu      sync.RWMutex
	aliases map[string]reflect.Type
}

// NewTypeAliases builds a registry with the built-in scalar aliases.
func NewTypeAliases() *TypeAliases {
	r := &TypeAliases{aliases: make(map[string]reflect.Type)}
	r.Register("string", reflect.TypeOf(""))
	r.Register("int", reflect.TypeOf(int(0)))
	r.Register("int64", reflect.TypeOf(int64(0)))
	r.Register("float64", reflect.TypeOf(float64(0)))
	r.Register("bool", reflect.TypeOf(false))
	r.Register("time", reflect.TypeOf(time.Time{}))
	r.Register("bytes", reflect.TypeOf([]byte(nil)))
	r.Register("map", reflect.TypeOf(map[string]interface{}{}))
	return r
}

// Register installs an alias for t. Re-registering the same name for a
// different type is an error; the same type is a no-op.
func (r *TypeAliases) Register(alias string, t reflect.Type) error {
	key := strings.ToLower(alias)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.aliases[key]; ok && existing != t {
		return fmt.Errorf("loader: alias %q already mapped to %s", alias, existing)
	}
	r.aliases[key] = t
	return nil
}

// RegisterValue aliases the dynamic type of v, unwrapping pointers.
func (r *TypeAliases) RegisterValue(alias string, v interface{}) error {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return fmt.Errorf("loader: cannot alias %q to a nil value", alias)
	}
	return r.Register(alias, t)
}

// Resolve looks an alias up case-insensitively.
func (r *TypeAliases) Resolve(alias string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.aliases[strings.ToLower(alias)]
	return t, ok
}
