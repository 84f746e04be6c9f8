package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestUnlimited_NeverBlocks(t *testing.T) {
	l := Unlimited("test")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 1000; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait #%d: %v", i, err)
		}
	}
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := New("test", 1, 2)

	if !l.Allow() || !l.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow() {
		t.Fatal("expected third call to be denied")
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New("slow", 0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected wait to fail")
	}
	if l.Name() != "slow" {
		t.Errorf("Name() = %s", l.Name())
	}
}

func TestNilLimiter(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("nil limiter Wait: %v", err)
	}
	if !l.Allow() {
		t.Fatal("nil limiter should allow")
	}
}
