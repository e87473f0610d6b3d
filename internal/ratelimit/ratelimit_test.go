package ratelimit

import (
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("42") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("42") {
		t.Fatalf("request over the limit should be rejected")
	}
	if !limiter.Allow("43") {
		t.Fatalf("another key should have its own bucket")
	}
}

func TestMemoryLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Millisecond)

	if !limiter.Allow("42") {
		t.Fatalf("first request should be allowed")
	}
	if limiter.Allow("42") {
		t.Fatalf("second request in window should be rejected")
	}
	time.Sleep(5 * time.Millisecond)
	if !limiter.Allow("42") {
		t.Fatalf("request after window reset should be allowed")
	}
}

func TestMemoryLimiterDisabled(t *testing.T) {
	limiter := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("42") {
			t.Fatalf("disabled limiter should allow everything")
		}
	}
}

func TestNoopLimiter(t *testing.T) {
	var limiter Limiter = NoopLimiter{}
	if !limiter.Allow("anything") {
		t.Fatalf("noop limiter should always allow")
	}
}
