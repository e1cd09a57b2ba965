package handler

import (
	"testing"
	"time"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("fourth request in window should be limited")
	}
	if retry != time.Minute {
		t.Errorf("expected retry after 1m, got %v", retry)
	}

	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("other clients have their own window")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("window should reset")
	}
}

func TestRateLimiter_PrunesExpiredVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	for _, ip := range []string{"a", "b", "c"} {
		rl.Allow(ip)
	}
	if len(rl.visitors) != 3 {
		t.Fatalf("expected 3 visitors, got %d", len(rl.visitors))
	}

	now = now.Add(2 * time.Second)
	rl.Allow("d")
	if len(rl.visitors) != 1 {
		t.Errorf("expired visitors should be pruned, have %d", len(rl.visitors))
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if ok, _ := rl.Allow("x"); !ok {
			t.Fatal("zero limit disables limiting")
		}
	}
}
