package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, capacity int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	c, err := New(capacity, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	c, clock := newTestCache(t, 8)

	c.Set("k", 42, 0)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_PerEntryTTL(t *testing.T) {
	c, clock := newTestCache(t, 8)

	c.Set("short", "a", 10*time.Second)
	c.Set("long", "b", time.Hour)

	clock.Advance(30 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, 2)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	_, _ = c.Get("a")
	c.Set("c", 3, 0)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_LastWriterWins(t *testing.T) {
	c, _ := newTestCache(t, 8)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("k", i, 0)
			_, _ = c.Get("k")
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestKey(t *testing.T) {
	a := Key("acme", "sale.report", "read_group", "Producto  A")
	b := Key("ACME", "sale.report", "read_group", "producto a")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, Key("acme", "purchase.report", "read_group", "producto a"))
	assert.NotEqual(t, Key("acme", 10), Key("acme", 20))
}
