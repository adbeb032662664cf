package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(max int) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(&Config{MaxRequests: max, WindowSize: time.Second, CleanupInterval: time.Hour})
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2)
	defer rl.Stop()

	assert.True(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("bob"), "keys are limited independently")
	assert.Equal(t, 2, rl.Count("alice"))

	*clock = clock.Add(1100 * time.Millisecond)
	assert.Equal(t, 0, rl.Count("alice"))
	assert.True(t, rl.Allow("alice"))
}

func TestRateLimiter_ResetAndCleanup(t *testing.T) {
	rl, clock := newTestLimiter(1)
	defer rl.Stop()

	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
	rl.Reset("alice")
	assert.True(t, rl.Allow("alice"))

	*clock = clock.Add(2 * time.Second)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()

	rl.Stop()
	rl.Stop()
}
