package cache

import "testing"

func TestLRUEvictsOldestEntry(t *testing.T) {
	c, err := NewLRU[int](2)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d (%v)", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestNilLRUIsNoop(t *testing.T) {
	var c *LRU[string]
	c.Add("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("nil cache must not return values")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty nil cache")
	}
}

func TestNewLRUDefaultsSize(t *testing.T) {
	c, err := NewLRU[string](0)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	for i := 0; i < DefaultSize+10; i++ {
		c.Add(string(rune('a'+i%26))+string(rune(i)), "x")
	}
	if c.Len() != DefaultSize {
		t.Fatalf("expected len %d, got %d", DefaultSize, c.Len())
	}
}
