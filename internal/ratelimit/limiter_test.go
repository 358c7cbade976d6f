package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowIsPerKey(t *testing.T) {
	t.Parallel()

	kl := NewKeyLimiter(0.001, 2)
	if !kl.Allow("a") || !kl.Allow("a") {
		t.Fatalf("burst should allow two events")
	}
	if kl.Allow("a") {
		t.Fatalf("third event should be limited")
	}
	if !kl.Allow("b") {
		t.Fatalf("other key should have its own bucket")
	}
}

func TestSetLimitAppliesToExistingKeys(t *testing.T) {
	t.Parallel()

	kl := NewKeyLimiter(0.001, 1)
	if !kl.Allow("a") || kl.Allow("a") {
		t.Fatalf("unexpected initial behaviour")
	}
	kl.SetLimit(1000, 5)
	time.Sleep(10 * time.Millisecond)
	if !kl.Allow("a") {
		t.Fatalf("raised limit not applied to existing key")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()

	kl := NewKeyLimiter(0.001, 1)
	_ = kl.Allow("")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := kl.Wait(ctx, ""); err == nil {
		t.Fatalf("expected wait to fail")
	}
}
