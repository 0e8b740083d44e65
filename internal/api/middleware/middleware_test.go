package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected first two requests allowed")
	}
	if rl.Allow("a") {
		t.Error("expected third request rejected")
	}
	if !rl.Allow("b") {
		t.Error("expected another client to have its own bucket")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("a") {
		t.Error("expected a token to refill after half the window")
	}
	if rl.Allow("a") {
		t.Error("expected only one refilled token")
	}
}

func TestDeduplicatorWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDeduplicator(2 * time.Second)
	d.now = func() time.Time { return now }

	if !d.check("POST:/x:1") {
		t.Fatal("expected first request allowed")
	}
	if d.check("POST:/x:1") {
		t.Error("expected duplicate rejected")
	}

	now = now.Add(3 * time.Second)
	if !d.check("POST:/x:1") {
		t.Error("expected request allowed after the window")
	}
	if len(d.seen) != 1 {
		t.Errorf("expected expired fingerprints pruned, got %d", len(d.seen))
	}
}
