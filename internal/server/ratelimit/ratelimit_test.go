package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsWithinLimit(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, Limit: 5, Window: time.Minute})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("client-a")
		assert.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, info := l.Allow("client-a")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.GreaterOrEqual(t, info.RetryAfter, time.Duration(0))
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, Limit: 1, Window: time.Minute})
	defer l.Stop()

	allowed, _ := l.Allow("client-a")
	assert.True(t, allowed)
	allowed, _ = l.Allow("client-a")
	assert.False(t, allowed)

	allowed, _ = l.Allow("client-b")
	assert.True(t, allowed)
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false, Limit: 1, Window: time.Minute})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("client-a")
		assert.True(t, allowed)
	}
}

func TestLimiterRefills(t *testing.T) {
	// 100 per second: a drained bucket earns a token back within ~10ms
	l := NewLimiter(&Config{Enabled: true, Limit: 100, Window: time.Second})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		l.Allow("client-a")
	}
	allowed, _ := l.Allow("client-a")
	assert.False(t, allowed)

	time.Sleep(50 * time.Millisecond)
	allowed, _ = l.Allow("client-a")
	assert.True(t, allowed)
}

func TestLimiterEvictsIdleClients(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, Limit: 5, Window: time.Minute, CleanupInterval: 10 * time.Millisecond})
	defer l.Stop()

	l.Allow("client-a")
	l.mu.Lock()
	l.lastAccess["client-a"] = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		_, ok := l.buckets["client-a"]
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 120, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_LIMIT", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, 30*time.Second, cfg.Window)
}
