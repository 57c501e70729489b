package cache

import (
	"context"
	"testing"
	"time"
)

func TestLimiterWithoutRedisAllows(t *testing.T) {
	var nilLimiter *Limiter
	for _, l := range []*Limiter{nilLimiter, NewLimiter(nil, "login", 1, time.Minute)} {
		for i := 0; i < 3; i++ {
			if err := l.Hit(context.Background(), "203.0.113.7"); err != nil {
				t.Fatalf("expected hit without redis to be a no-op, got %v", err)
			}
			ok, err := l.Allow(context.Background(), "203.0.113.7")
			if err != nil || !ok {
				t.Fatalf("expected allow without redis, got %v %v", ok, err)
			}
		}
	}
}

func TestLimiterDisabledByZeroLimit(t *testing.T) {
	ok, err := NewLimiter(nil, "login", 0, time.Minute).Allow(context.Background(), "x")
	if err != nil || !ok {
		t.Fatalf("expected a zero limit to disable throttling")
	}
}
