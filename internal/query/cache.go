package query

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defaults. Entries are keyed by snapshot version so stale entries are
// never served; expiry only bounds memory.
const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// typedCache is a go-cache wrapper that stores values of one type.
type typedCache[V any] struct {
	cache *gocache.Cache
}

func newTypedCache[V any](expiration, cleanup time.Duration) *typedCache[V] {
	return &typedCache[V]{cache: gocache.New(expiration, cleanup)}
}

// Get returns the value for key. A value of the wrong type counts as a miss.
func (c *typedCache[V]) Get(key string) (V, bool) {
	var zero V
	raw, found := c.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (c *typedCache[V]) Set(key string, v V) {
	c.cache.Set(key, v, gocache.DefaultExpiration)
}

func (c *typedCache[V]) Len() int {
	return c.cache.ItemCount()
}
