package reflection

import (
	"reflect"
	"sync"
)

// DescriptorCache hands out exactly one Descriptor per type within its scope.
// Construction happens outside the lock; when two goroutines race on the same
// type's first use, only the first published instance survives and later
// builds are discarded, so observers never see two live descriptors for one
// type.
type DescriptorCache struct {
	mu          sync.RWMutex
	descriptors map[reflect.Type]*Descriptor
}

// NewDescriptorCache returns an empty cache scope.
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{descriptors: make(map[reflect.Type]*Descriptor)}
}

// Descriptor returns the cached descriptor for t, building it on first use.
// Pointer types share their element type's entry.
func (c *DescriptorCache) Descriptor(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	c.mu.RLock()
	d, ok := c.descriptors[t]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	built, err := NewDescriptor(t)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.descriptors[t]; ok {
		// lost the race; keep the first published instance
		return existing, nil
	}
	c.descriptors[t] = built
	return built, nil
}

// Len reports the number of cached descriptors.
func (c *DescriptorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}
