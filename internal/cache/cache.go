// Package cache provides an in-memory TTL cache with a stale-while-error
// window. Entries past their TTL but inside the stale window are still
// returned, flagged Stale, so callers can serve them when upstream fails.
package cache

import (
	"sync"
	"time"

	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

// Defaults for the listings cache.
const (
	DefaultTTL        = time.Hour
	DefaultStaleTTL   = 7 * 24 * time.Hour
	DefaultMaxEntries = 100
)

// Status is the freshness of a cache read.
type Status int

// Read statuses.
const (
	Miss Status = iota
	Fresh
	Stale
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Entry is a cached value with its timestamps.
type Entry[T any] struct {
	Value      T
	CachedAt   time.Time
	ExpiresAt  time.Time
	StaleUntil time.Time
}

type settings struct {
	ttl        time.Duration
	staleTTL   time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures a Store.
type Option func(*settings)

// WithTTL sets how long entries are fresh.
func WithTTL(d time.Duration) Option {
	return func(s *settings) { s.ttl = d }
}

// WithStaleTTL sets how long after being written an entry may still be
// served as stale. Zero disables the stale window.
func WithStaleTTL(d time.Duration) Option {
	return func(s *settings) { s.staleTTL = d }
}

// WithMaxEntries caps the number of entries; the oldest are pruned first.
func WithMaxEntries(n int) Option {
	return func(s *settings) { s.maxEntries = n }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Store is a concurrency-safe keyed cache. Concurrent writers to the same key
// race with last-writer-wins semantics.
type Store[T any] struct {
	name string
	cfg  settings

	mu      sync.RWMutex
	entries map[string]Entry[T]
}

// New creates a named store. The name labels its metrics.
func New[T any](name string, opts ...Option) *Store[T] {
	cfg := settings{
		ttl:        DefaultTTL,
		staleTTL:   DefaultStaleTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Store[T]{
		name:    name,
		cfg:     cfg,
		entries: make(map[string]Entry[T]),
	}
}

// Name returns the store name.
func (c *Store[T]) Name() string {
	return c.name
}

// Get returns the value and its freshness. An entry past its stale window is
// evicted and reported as a Miss.
func (c *Store[T]) Get(key string) (T, Status) {
	now := c.cfg.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	status := Miss
	switch {
	case !ok:
	case now.Before(e.ExpiresAt):
		status = Fresh
	case now.Before(e.StaleUntil):
		status = Stale
	default:
		c.evict(key, e.CachedAt)
	}

	metrics.CacheLookupsTotal.WithLabelValues(c.name, status.String()).Inc()
	if status == Miss {
		return zero, Miss
	}
	return e.Value, status
}

// Entry returns the raw entry without touching metrics or evicting.
func (c *Store[T]) Entry(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Set stores v with the store's TTL.
func (c *Store[T]) Set(key string, v T) {
	c.SetWithTTL(key, v, c.cfg.ttl)
}

// SetWithTTL stores v with an explicit TTL. The stale window still runs from
// the write time.
func (c *Store[T]) SetWithTTL(key string, v T, ttl time.Duration) {
	now := c.cfg.now()
	e := Entry[T]{
		Value:     v,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	e.StaleUntil = e.ExpiresAt
	if stale := now.Add(c.cfg.staleTTL); stale.After(e.StaleUntil) {
		e.StaleUntil = stale
	}

	c.mu.Lock()
	c.entries[key] = e
	c.pruneLocked()
	n := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
}

// Delete removes a key.
func (c *Store[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	n := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
}

// Sweep evicts every entry past its stale window and returns how many were
// removed.
func (c *Store[T]) Sweep() int {
	now := c.cfg.now()

	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.StaleUntil) {
			delete(c.entries, k)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
	return removed
}

// Len returns the number of entries, including stale ones.
func (c *Store[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evict deletes key only if it still holds the entry written at cachedAt, so
// a concurrent fresh write is not lost.
func (c *Store[T]) evict(key string, cachedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.CachedAt.Equal(cachedAt) {
		delete(c.entries, key)
	}
}

func (c *Store[T]) pruneLocked() {
	if c.cfg.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.cfg.maxEntries {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.CachedAt.Before(oldest) {
				oldestKey, oldest, first = k, e.CachedAt, false
			}
		}
		delete(c.entries, oldestKey)
	}
}
