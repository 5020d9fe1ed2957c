package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoWillems/Galleria/internal/pkg/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
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

func testConfigs(limit int, window time.Duration) map[ratelimit.RouteClass]ratelimit.Config {
	return map[ratelimit.RouteClass]ratelimit.Config{
		ratelimit.RouteClassAPI:     {Limit: limit, Window: window},
		ratelimit.RouteClassWebhook: {Limit: limit * 5, Window: window},
	}
}

func TestAdmitUpToLimitThenReject(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(testConfigs(3, time.Minute), clock)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Admit(ratelimit.RouteClassAPI, "1.2.3.4"), "request %d should be admitted", i+1)
	}
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "1.2.3.4"), "request over limit should be rejected")
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "1.2.3.4"))
}

func TestKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(testConfigs(1, time.Minute), clock)

	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "1.2.3.4"))
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "1.2.3.4"))
	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "5.6.7.8"), "other caller has its own bucket")
}

func TestRouteClassesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(testConfigs(1, time.Minute), clock)

	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "global"))
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "global"))
	// Same key under the webhook class draws from the webhook budget.
	assert.True(t, l.Admit(ratelimit.RouteClassWebhook, "global"))
}

func TestWindowElapsesAndResets(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(testConfigs(2, time.Minute), clock)

	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "k"))

	clock.Advance(time.Minute)

	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"), "new window restores the budget")
	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "k"))
}

func TestBackwardClockJumpNeverOverAdmits(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(testConfigs(2, time.Minute), clock)

	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "k"))

	// A backward jump must not open a fresh budget in the old window.
	clock.Advance(-5 * time.Minute)
	assert.False(t, l.Admit(ratelimit.RouteClassAPI, "k"))

	// Once the wall clock passes the stored window again, the reset happens.
	clock.Advance(10 * time.Minute)
	assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
}

func TestUnconfiguredClassIsNotLimited(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(map[ratelimit.RouteClass]ratelimit.Config{}, clock)

	for i := 0; i < 100; i++ {
		assert.True(t, l.Admit(ratelimit.RouteClassAPI, "k"))
	}
}

func TestConcurrentAdmitNeverUnderCounts(t *testing.T) {
	clock := newFakeClock()
	const limit = 50
	l := ratelimit.NewWithClock(testConfigs(limit, time.Minute), clock)

	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if l.Admit(ratelimit.RouteClassAPI, "shared") {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted, "exactly the configured budget may pass")
}

func TestConfigsFromEnvDefaults(t *testing.T) {
	configs := ratelimit.ConfigsFromEnv()

	api, ok := configs[ratelimit.RouteClassAPI]
	assert.True(t, ok)
	assert.Equal(t, 60, api.Limit)
	assert.Equal(t, time.Minute, api.Window)

	webhook, ok := configs[ratelimit.RouteClassWebhook]
	assert.True(t, ok)
	assert.Equal(t, 300, webhook.Limit)
	assert.Equal(t, time.Minute, webhook.Window)
	assert.Greater(t, webhook.Limit, api.Limit, "webhook budget must exceed the general API budget")
}
