package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/common"
)

// Class names a throttled operation.
type Class string

const (
	ClassRegistration Class = "registration"
	ClassLogin        Class = "login"
	ClassFetchKeys    Class = "fetch_keys"
)

// Rule bounds one class: at most Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules mirrors the production limits.
func DefaultRules() map[Class]Rule {
	return map[Class]Rule{
		ClassRegistration: {Limit: 5, Window: 24 * time.Hour},
		ClassLogin:        {Limit: 50, Window: 24 * time.Hour},
		ClassFetchKeys:    {Limit: 50, Window: 24 * time.Hour},
	}
}

type counterKey struct {
	client string
	class  Class
}

type counter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	// evicted is set by Sweep once the counter has left the map.
	evicted bool
}

type Limiter struct {
	rules           map[Class]Rule
	counters        sync.Map // counterKey -> *counter
	now             func() time.Time
	cleanupInterval time.Duration
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithCleanupInterval sets how often the janitor sweeps. Non-positive values
// keep the default.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.cleanupInterval = d
		}
	}
}

func New(rules map[Class]Rule, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		rules:           make(map[Class]Rule, len(rules)),
		now:             time.Now,
		cleanupInterval: 10 * time.Minute,
	}
	for class, r := range rules {
		if r.Limit <= 0 || r.Window <= 0 {
			return nil, fmt.Errorf("ratelimit: invalid rule for %q: limit=%d window=%s", class, r.Limit, r.Window)
		}
		l.rules[class] = r
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Check counts one request by client against class. It returns
// common.ErrRateLimitExceeded when the window is full and leaves the counter
// unchanged in that case.
func (l *Limiter) Check(client string, class Class) error {
	rule, ok := l.rules[class]
	if !ok {
		return fmt.Errorf("%w: unknown rate limit class %q", common.ErrorInternal, class)
	}

	key := counterKey{client: client, class: class}
	for {
		v, _ := l.counters.LoadOrStore(key, &counter{})
		c := v.(*counter)

		c.mu.Lock()
		if c.evicted {
			c.mu.Unlock()
			continue
		}

		now := l.now()
		if c.windowStart.IsZero() || now.Sub(c.windowStart) > rule.Window {
			c.count = 1
			c.windowStart = now
			c.mu.Unlock()
			return nil
		}
		if c.count >= rule.Limit {
			c.mu.Unlock()
			return common.ErrRateLimitExceeded
		}
		c.count++
		c.mu.Unlock()
		return nil
	}
}

// Sweep drops counters whose window has elapsed at now and returns how many
// were removed. Such a counter would restart on its next use anyway.
func (l *Limiter) Sweep(now time.Time) int {
	removed := 0
	l.counters.Range(func(k, v any) bool {
		key := k.(counterKey)
		c := v.(*counter)
		rule := l.rules[key.class]

		c.mu.Lock()
		if c.windowStart.IsZero() || now.Sub(c.windowStart) > rule.Window {
			if l.counters.CompareAndDelete(key, c) {
				c.evicted = true
				removed++
			}
		}
		c.mu.Unlock()
		return true
	})
	return removed
}

// StartJanitor sweeps every cleanup interval until ctx is done. It blocks, so
// run it in its own goroutine.
func (l *Limiter) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(l.now())
		}
	}
}

// Len reports how many counters are tracked.
func (l *Limiter) Len() int {
	n := 0
	l.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Rule returns the rule configured for class.
func (l *Limiter) Rule(class Class) (Rule, bool) {
	r, ok := l.rules[class]
	return r, ok
}
