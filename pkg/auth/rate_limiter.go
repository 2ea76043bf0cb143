package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

type window struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	l.mu.Lock()
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)

	kept := w.requests[:0]
	for _, at := range w.requests {
		if at.After(windowStart) {
			kept = append(kept, at)
		}
	}
	w.requests = kept

	if len(w.requests) >= l.limit {
		return false, nil
	}

	w.requests = append(w.requests, now)
	return true, nil
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// KeyedRateLimiter prefixes keys so one limiter type can serve several scopes
type KeyedRateLimiter struct {
	prefix  string
	limiter RateLimiter
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(requestsPerMinute int) *KeyedRateLimiter {
	return &KeyedRateLimiter{prefix: "ip:", limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

// NewUserRateLimiter creates a new user-based rate limiter
func NewUserRateLimiter(requestsPerMinute int) *KeyedRateLimiter {
	return &KeyedRateLimiter{prefix: "user:", limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

// Allow checks if a request for key is allowed
func (l *KeyedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+key)
}

// Reset clears the window for key
func (l *KeyedRateLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+key)
}
