package cache

import "golang.org/x/sync/singleflight"

// Loader pairs an LRU with single-flight fetching: on a miss, one caller
// computes the value while concurrent callers for the same key await the
// same result. Successful results are published to the cache.
type Loader[V any] struct {
	lru   *LRU[string, V]
	group singleflight.Group
}

// NewLoader creates a loader over a bounded LRU of the given size.
func NewLoader[V any](max int) *Loader[V] {
	return &Loader[V]{lru: NewLRU[string, V](max)}
}

// GetOrCompute returns the cached value for key or computes it, ensuring at
// most one compute is in flight per key. Errors are not cached.
func (l *Loader[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := l.lru.Get(key); ok {
		return v, nil
	}
	res, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.lru.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		l.lru.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate drops key from the cache.
func (l *Loader[V]) Invalidate(key string) {
	l.lru.Remove(key)
}
