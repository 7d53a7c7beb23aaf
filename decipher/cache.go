package decipher

import (
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
)

// VersionCache maps version keys to function tables. Entries never expire
// and are never replaced. One cache may be shared by several engines.
type VersionCache struct {
	populateMu sync.Mutex
	store      *cache.Cache
}

// NewVersionCache returns an empty cache.
func NewVersionCache() *VersionCache {
	return &VersionCache{store: cache.New(cache.NoExpiration, 0)}
}

// Get returns the table stored under key.
func (c *VersionCache) Get(key string) (*FunctionTable, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*FunctionTable), true
}

// Populate returns the table under key, calling build to create it when
// absent. Builds are serialized; built reports whether this call stored
// the table. A failed build stores nothing.
func (c *VersionCache) Populate(key string, build func() (*FunctionTable, error)) (table *FunctionTable, built bool, err error) {
	if t, ok := c.Get(key); ok {
		return t, false, nil
	}

	c.populateMu.Lock()
	defer c.populateMu.Unlock()
	if t, ok := c.Get(key); ok {
		return t, false, nil
	}

	t, err := build()
	if err != nil {
		return nil, false, err
	}
	if err := c.store.Add(key, t, cache.NoExpiration); err != nil {
		// Only reachable if someone bypassed populateMu.
		existing, _ := c.Get(key)
		return existing, false, nil
	}
	return t, true, nil
}

// Len returns the number of stored versions.
func (c *VersionCache) Len() int { return c.store.ItemCount() }

// Keys returns the stored version keys in sorted order.
func (c *VersionCache) Keys() []string {
	items := c.store.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
