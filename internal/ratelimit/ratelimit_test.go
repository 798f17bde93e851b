package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	limiter := New(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("client") {
			t.Fatalf("Expected request %d within burst to pass", i+1)
		}
	}
	if limiter.Allow("client") {
		t.Error("Expected request beyond burst to be rejected")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := New(1, 1)

	if !limiter.Allow("a") {
		t.Fatal("Expected first request for key a to pass")
	}
	if limiter.Allow("a") {
		t.Error("Expected second request for key a to be rejected")
	}
	if !limiter.Allow("b") {
		t.Error("Expected key b to have its own bucket")
	}
}

func TestCleanup(t *testing.T) {
	limiter := New(1, 1)
	limiter.Allow("stale")
	limiter.Allow("fresh")

	// Age out the stale bucket
	limiter.mu.Lock()
	limiter.limiters["stale"].lastSeen = time.Now().Add(-time.Hour)
	limiter.mu.Unlock()

	removed := limiter.Cleanup(30 * time.Minute)
	if removed != 1 {
		t.Errorf("Expected 1 bucket removed, got %d", removed)
	}

	limiter.mu.RLock()
	_, staleExists := limiter.limiters["stale"]
	_, freshExists := limiter.limiters["fresh"]
	limiter.mu.RUnlock()

	if staleExists {
		t.Error("Expected stale bucket to be removed")
	}
	if !freshExists {
		t.Error("Expected fresh bucket to survive")
	}
}
