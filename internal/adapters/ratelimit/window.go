// Package ratelimit holds the in-process sliding window limiter used when no
// Redis is configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"meiras_yachting/internal/domain"
)

type SlidingWindow struct {
	mu           sync.Mutex
	hits         map[string][]time.Time
	limit        int
	window       time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

func WithCleanupEvery(d time.Duration) Option {
	return func(s *SlidingWindow) { s.cleanupEvery = d }
}

func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		hits:         make(map[string][]time.Time),
		limit:        limit,
		window:       window,
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements domain.RateLimiter. Trim, compare and record happen under
// one lock.
func (s *SlidingWindow) Allow(_ context.Context, key string) (domain.Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	hits := s.trim(key, now)
	if len(hits) >= s.limit {
		return domain.Decision{
			Allowed:    false,
			RetryAfter: hits[0].Add(s.window).Sub(now),
		}, nil
	}
	s.hits[key] = append(hits, now)
	return domain.Decision{Allowed: true, Remaining: s.limit - len(hits) - 1}, nil
}

// trim drops attempts that left the window; caller holds mu.
func (s *SlidingWindow) trim(key string, now time.Time) []time.Time {
	hits := s.hits[key]
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(s.hits, key)
		return nil
	}
	s.hits[key] = hits
	return hits
}

func (s *SlidingWindow) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.hits {
		s.trim(k, now)
	}
}

// StartJanitor drops idle keys periodically until ctx is done.
func (s *SlidingWindow) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

func (s *SlidingWindow) keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}
