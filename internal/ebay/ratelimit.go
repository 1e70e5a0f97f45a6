package ebay

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

// Limiter keys. Every caller of a dependency funnels through the same key.
const (
	KeyBrowse = "ebay-browse"
	KeyScrape = "scrape"
)

const dailyWindow = 24 * time.Hour

// Policy configures one limiter key.
type Policy struct {
	MinInterval time.Duration // spacing between requests; zero disables
	DailyLimit  int64         // calls per rolling 24h window; zero disables
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultPolicy is applied to keys that were never registered.
var DefaultPolicy = Policy{
	MinInterval: time.Second,
	BackoffBase: 2 * time.Second,
	BackoffMax:  5 * time.Minute,
}

// LimiterState is a point-in-time view of one key.
type LimiterState struct {
	Key               string    `json:"key"`
	LastRequest       time.Time `json:"last_request"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	BlockedUntil      time.Time `json:"blocked_until"`
	DailyCount        int64     `json:"daily_count"`
	DailyLimit        int64     `json:"daily_limit"`
	ResetAt           time.Time `json:"reset_at"`
}

type keyState struct {
	policy  Policy
	limiter *rate.Limiter

	lastRequest  time.Time
	errors       int
	blockedUntil time.Time
	daily        int64
	resetAt      time.Time
}

// Controller gates access to external dependencies. It enforces a minimum
// interval per key, an optional daily quota and exponential backoff after
// failures. The mutex guards timing decisions only; callers sleep without
// holding it.
type Controller struct {
	mu   sync.Mutex
	keys map[string]*keyState

	nowFunc func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithControllerNowFunc overrides the time function for testing.
func WithControllerNowFunc(f func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = f
	}
}

// WithSleepFunc overrides how the controller sleeps through a backoff
// window, for testing.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) ControllerOption {
	return func(c *Controller) {
		c.sleep = f
	}
}

// WithPolicy registers a key at construction.
func WithPolicy(key string, p Policy) ControllerOption {
	return func(c *Controller) {
		c.keys[key] = c.newKeyState(p)
	}
}

// NewController creates an empty controller.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		keys:    make(map[string]*keyState),
		nowFunc: time.Now,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register sets or replaces the policy for key.
func (c *Controller) Register(key string, p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = c.newKeyState(p)
}

func (c *Controller) newKeyState(p Policy) *keyState {
	lim := rate.Inf
	if p.MinInterval > 0 {
		lim = rate.Every(p.MinInterval)
	}
	return &keyState{
		policy:  p,
		limiter: rate.NewLimiter(lim, 1),
		resetAt: c.nowFunc().Add(dailyWindow),
	}
}

func (c *Controller) stateLocked(key string) *keyState {
	s, ok := c.keys[key]
	if !ok {
		s = c.newKeyState(DefaultPolicy)
		c.keys[key] = s
	}
	return s
}

// Wait blocks until key may issue a request: first through any backoff
// window, then through the minimum interval. It returns
// ErrDailyLimitReached without waiting when the quota is exhausted.
func (c *Controller) Wait(ctx context.Context, key string) error {
	c.mu.Lock()
	s := c.stateLocked(key)
	now := c.nowFunc()
	if now.After(s.resetAt) {
		s.daily = 0
		s.resetAt = now.Add(dailyWindow)
	}
	if s.policy.DailyLimit > 0 && s.daily >= s.policy.DailyLimit {
		used, limit := s.daily, s.policy.DailyLimit
		c.mu.Unlock()
		if key == KeyBrowse {
			metrics.EbayDailyLimitHits.Inc()
		}
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, used, limit)
	}
	blocked := s.blockedUntil.Sub(now)
	lim := s.limiter
	c.mu.Unlock()

	if blocked > 0 {
		if err := c.sleep(ctx, blocked); err != nil {
			return fmt.Errorf("backoff wait: %w", err)
		}
	}
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	c.mu.Lock()
	s.lastRequest = c.nowFunc()
	s.daily++
	daily := s.daily
	c.mu.Unlock()

	if key == KeyBrowse {
		metrics.EbayDailyUsage.Set(float64(daily))
	}
	return nil
}

// Success records a successful call: the error count decays by one and any
// block is cleared.
func (c *Controller) Success(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stateLocked(key)
	if s.errors > 0 {
		s.errors--
	}
	s.blockedUntil = time.Time{}
}

// Failure records a failed call and returns the backoff applied. The window
// is base*2^(errors-1) capped at the policy maximum, doubled for
// rate-limited responses. BlockedUntil never moves backwards.
func (c *Controller) Failure(key string, err error) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stateLocked(key)
	s.errors++
	d := Backoff(s.policy, s.errors)
	if errors.Is(err, ErrRateLimited) {
		d *= 2
	}
	if until := c.nowFunc().Add(d); until.After(s.blockedUntil) {
		s.blockedUntil = until
	}
	metrics.BackoffBlocksTotal.WithLabelValues(key).Inc()
	return d
}

// Backoff computes base*2^(errors-1) capped at p.BackoffMax.
func Backoff(p Policy, errs int) time.Duration {
	if errs <= 0 || p.BackoffBase <= 0 {
		return 0
	}
	d := p.BackoffBase
	for i := 1; i < errs; i++ {
		d *= 2
		if p.BackoffMax > 0 && d >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

// Snapshot returns the state of one key.
func (c *Controller) Snapshot(key string) LimiterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(key, c.stateLocked(key))
}

// Snapshots returns the state of every known key, sorted by key.
func (c *Controller) Snapshots() []LimiterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LimiterState, 0, len(c.keys))
	for k, s := range c.keys {
		out = append(out, c.snapshotLocked(k, s))
	}
	slices.SortFunc(out, func(a, b LimiterState) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// SyncDaily overwrites the daily counter with an authoritative value, such
// as the count reported by the Analytics API.
func (c *Controller) SyncDaily(key string, count int64, resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stateLocked(key)
	s.daily = count
	if !resetAt.IsZero() {
		s.resetAt = resetAt
	}
}

func (c *Controller) snapshotLocked(key string, s *keyState) LimiterState {
	return LimiterState{
		Key:               key,
		LastRequest:       s.lastRequest,
		ConsecutiveErrors: s.errors,
		BlockedUntil:      s.blockedUntil,
		DailyCount:        s.daily,
		DailyLimit:        s.policy.DailyLimit,
		ResetAt:           s.resetAt,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
