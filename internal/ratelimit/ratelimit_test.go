package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryFixedWindow(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(3, 15*time.Minute)
	m.now = c.now
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := m.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, _ := m.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 15*time.Minute, d.RetryAfter(c.now()))

	other, _ := m.Allow(ctx, "10.0.0.2")
	assert.True(t, other.Allowed, "keys are counted separately")

	c.advance(15 * time.Minute)
	d, _ = m.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed, "a new window starts once the old one ends")
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryConcurrentCountsAreExact(t *testing.T) {
	m := NewMemory(50, time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := m.Allow(context.Background(), "k")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestMemorySweep(t *testing.T) {
	c := &clock{t: time.Now()}
	m := NewMemory(1, time.Second)
	m.now = c.now
	_, _ = m.Allow(context.Background(), "a")
	_, _ = m.Allow(context.Background(), "b")
	assert.Equal(t, 2, m.size())

	c.advance(2 * time.Second)
	m.sweep()
	assert.Zero(t, m.size())
}

func TestMemoryRunStopsWithContext(t *testing.T) {
	m := NewMemory(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisFixedWindow(t *testing.T) {
	client, mr := setupRedis(t)
	l := NewRedis(client, 2, 15*time.Minute, "")
	ctx := context.Background()

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	assert.Equal(t, 15*time.Minute, mr.TTL("ratelimit:ip:10.0.0.1"))

	mr.FastForward(15 * time.Minute)
	d, err = l.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisFailsOpen(t *testing.T) {
	client, mr := setupRedis(t)
	l := NewRedis(client, 1, time.Minute, "rl")
	mr.Close()

	d, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, d.Allowed)
}
