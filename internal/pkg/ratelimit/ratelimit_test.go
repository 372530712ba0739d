package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_EnforcesLimitPerKey(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, resetAt, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("third request should be denied")
	}
	if resetAt.IsZero() {
		t.Fatalf("denied request must report when the window resets")
	}

	// Other keys keep their own budget.
	if ok, _, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatalf("unrelated key must not be throttled")
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return current }
	ctx := context.Background()

	if ok, _, _ := l.Allow(ctx, "k"); !ok {
		t.Fatalf("first request should be allowed")
	}
	if ok, _, _ := l.Allow(ctx, "k"); ok {
		t.Fatalf("second request in the same window should be denied")
	}

	current = current.Add(2 * time.Minute)
	if ok, _, _ := l.Allow(ctx, "k"); !ok {
		t.Fatalf("request after window expiry should be allowed again")
	}
}
