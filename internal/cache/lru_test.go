package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(2 * time.Minute)
	c.Set("c", "z")

	assert.Equal(t, 2, c.CleanExpired())
	_, ok := c.Get("c")
	assert.True(t, ok)

	m := NewManager()
	m.Register(c)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, c.Size())
}

func TestPurgeAndDelete(t *testing.T) {
	c := NewLRUCache[int](5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Size())
	c.Purge()
	assert.Zero(t, c.Size())
	c.Set("c", 3)
	assert.Equal(t, 1, c.Size())
}
