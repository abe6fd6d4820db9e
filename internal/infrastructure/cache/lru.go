package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 512

// LRU is a bounded, concurrency-safe key/value cache. A nil *LRU never stores anything.
type LRU[V any] struct {
	inner *lru.Cache[string, V]
}

func NewLRU[V any](size int) (*LRU[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	inner, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &LRU[V]{inner: inner}, nil
}

// MustLRU is NewLRU for call sites with a constant, valid size.
func MustLRU[V any](size int) *LRU[V] {
	c, err := NewLRU[V](size)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *LRU[V]) Get(key string) (V, bool) {
	if c == nil {
		var zero V
		return zero, false
	}
	return c.inner.Get(key)
}

func (c *LRU[V]) Add(key string, value V) {
	if c == nil {
		return
	}
	c.inner.Add(key, value)
}

func (c *LRU[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.inner.Len()
}

func (c *LRU[V]) Purge() {
	if c == nil {
		return
	}
	c.inner.Purge()
}
