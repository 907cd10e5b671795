package cache

import (
	"errors"
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

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	c := New[string](ttl)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func TestGetSetExpiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("alerts", "elevator out")
	v, ok := c.Get("alerts")
	require.True(t, ok)
	assert.Equal(t, "elevator out", v)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("alerts")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("alerts")
	assert.False(t, ok, "entry should expire exactly at the TTL")
}

func TestRemoveExpired(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("a", "1")
	clock.Advance(30 * time.Second)
	c.Set("b", "2")
	clock.Advance(45 * time.Second)

	c.removeExpired()
	assert.Len(t, c.entries, 1)
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}

	for range 3 {
		v, err := c.GetOrLoad("k", load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v)
	}
	assert.Equal(t, 1, calls)

	_, err := c.GetOrLoad("bad", func() (string, error) { return "", errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok := c.Get("bad")
	assert.False(t, ok, "failed loads are not cached")
}

func TestZeroTTLDisablesStorage(t *testing.T) {
	c := New[int](0)
	defer c.Close()

	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Empty(t, c.entries)
}

func TestDoubleClose(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}
