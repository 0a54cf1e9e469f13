package redisad_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	redisad "meiras_yachting/internal/adapters/redis"
)

func TestSlidingWindow_Redis_Boundary(t *testing.T) {
	_, rdb := newRedis(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	lim := redisad.NewSlidingWindow(rdb, 2, 5*time.Minute, redisad.WithClock(clock))
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		dec, err := lim.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if want := i <= 2; dec.Allowed != want {
			t.Fatalf("submission %d: allowed=%v want %v", i, dec.Allowed, want)
		}
		now = now.Add(10 * time.Second)
	}

	dec, _ := lim.Allow(ctx, "1.2.3.4")
	if dec.Allowed || dec.RetryAfter <= 0 || dec.RetryAfter > 5*time.Minute {
		t.Fatalf("unexpected decision: %+v", dec)
	}

	now = now.Add(5 * time.Minute)
	if dec, _ := lim.Allow(ctx, "1.2.3.4"); !dec.Allowed {
		t.Fatalf("expected window to have slid")
	}
	if dec, _ := lim.Allow(ctx, "5.6.7.8"); !dec.Allowed || dec.Remaining != 1 {
		t.Fatalf("other client should start fresh: %+v", dec)
	}
}

func TestSlidingWindow_Redis_Concurrent(t *testing.T) {
	_, rdb := newRedis(t)
	lim := redisad.NewSlidingWindow(rdb, 2, 5*time.Minute)

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := lim.Allow(context.Background(), "same")
			if err == nil && dec.Allowed {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	if allowed != 2 {
		t.Fatalf("expected exactly 2 allowed, got %d", allowed)
	}
}
