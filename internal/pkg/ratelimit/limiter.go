package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/MarcoWillems/Galleria/internal/pkg/env"
)

// RouteClass selects which admission budget applies to a request.
type RouteClass string

const (
	// RouteClassAPI covers the general JSON API.
	RouteClassAPI RouteClass = "api"
	// RouteClassWebhook covers payment notifications. It gets its own,
	// larger budget so provider retries are not mistaken for abuse.
	RouteClassWebhook RouteClass = "webhook"
)

// Config is the fixed-window budget for one route class.
type Config struct {
	Limit  int
	Window time.Duration
}

// Clock abstracts time.Now so tests can drive the window boundary.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type bucket struct {
	window int64 // fixed window index, floor(now / cfg.Window)
	count  int
}

// Limiter is a fixed-window admission controller. Counters live in process
// memory and are keyed by (route class, caller key); losing them on restart
// is acceptable. All state is owned by the Limiter instance - create one at
// process start and inject it, there is no package-level counter.
type Limiter struct {
	mu      sync.Mutex
	clock   Clock
	configs map[RouteClass]Config
	buckets map[string]*bucket
}

// New creates a limiter with the given per-class budgets and the system clock.
func New(configs map[RouteClass]Config) *Limiter {
	return NewWithClock(configs, systemClock{})
}

// NewWithClock creates a limiter with an explicit clock, for tests.
func NewWithClock(configs map[RouteClass]Config, clock Clock) *Limiter {
	cfgs := make(map[RouteClass]Config, len(configs))
	for class, cfg := range configs {
		cfgs[class] = cfg
	}
	return &Limiter{
		clock:   clock,
		configs: cfgs,
		buckets: make(map[string]*bucket),
	}
}

// Admit reports whether a request for the given route class and caller key
// fits the current window's budget. The counter update is atomic under the
// limiter's lock, so concurrent requests can never under-count.
func (l *Limiter) Admit(class RouteClass, key string) bool {
	cfg, ok := l.configs[class]
	if !ok || cfg.Limit <= 0 || cfg.Window <= 0 {
		// Unconfigured route classes are not limited.
		return true
	}

	idx := l.clock.Now().UnixMilli() / cfg.Window.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	bkey := string(class) + ":" + key
	b, ok := l.buckets[bkey]
	if !ok {
		b = &bucket{window: idx}
		l.buckets[bkey] = b
	}
	// Only roll forward. If the wall clock jumps backward we keep counting
	// against the stored window, which can under-admit but never over-admit.
	if idx > b.window {
		b.window = idx
		b.count = 0
	}

	b.count++
	return b.count <= cfg.Limit
}

// ConfigsFromEnv reads the per-class budgets from the environment, with
// defaults sized so that PayFast's retry schedule fits comfortably inside the
// webhook budget.
func ConfigsFromEnv() map[RouteClass]Config {
	return map[RouteClass]Config{
		RouteClassAPI: {
			Limit:  envInt("RATE_LIMIT_API_MAX", 60),
			Window: time.Duration(envInt("RATE_LIMIT_API_WINDOW_MS", 60000)) * time.Millisecond,
		},
		RouteClassWebhook: {
			Limit:  envInt("RATE_LIMIT_WEBHOOK_MAX", 300),
			Window: time.Duration(envInt("RATE_LIMIT_WEBHOOK_WINDOW_MS", 60000)) * time.Millisecond,
		},
	}
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(env.GetEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
