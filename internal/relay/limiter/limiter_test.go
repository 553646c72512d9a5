package limiter

import (
	"testing"
	"time"
)

func TestTryConsumeRespectsMaxTokens(t *testing.T) {
	now := time.Now()
	b := NewWithClock(8, time.Minute, func() time.Time { return now })

	for i := 0; i < 8; i++ {
		if !b.TryConsume() {
			t.Fatalf("consume %d should succeed on a full bucket", i+1)
		}
	}
	if b.TryConsume() {
		t.Fatal("consume beyond max must fail within the same instant")
	}
}

func TestFullWindowRefillsToMax(t *testing.T) {
	now := time.Now()
	b := NewWithClock(8, time.Minute, func() time.Time { return now })

	for i := 0; i < 8; i++ {
		b.TryConsume()
	}

	now = now.Add(time.Minute)

	for i := 0; i < 8; i++ {
		if !b.TryConsume() {
			t.Fatalf("after a full window, consume %d should succeed", i+1)
		}
	}
	if b.TryConsume() {
		t.Fatal("refill must cap at max tokens")
	}
}

func TestSmoothPartialRefill(t *testing.T) {
	now := time.Now()
	b := NewWithClock(8, time.Minute, func() time.Time { return now })

	for i := 0; i < 8; i++ {
		b.TryConsume()
	}

	// 8/60000 token/ms：7.5 秒补一枚令牌
	now = now.Add(7500 * time.Millisecond)

	if !b.TryConsume() {
		t.Fatal("one token should have refilled after 7.5s")
	}
	if b.TryConsume() {
		t.Fatal("only one token should be available after 7.5s")
	}
}

func TestRefillDoesNotExceedMax(t *testing.T) {
	now := time.Now()
	b := NewWithClock(4, time.Second, func() time.Time { return now })

	// 长时间空闲后仍然只有 max 枚
	now = now.Add(time.Hour)

	if got := b.Tokens(); got != 4 {
		t.Fatalf("tokens = %v, want 4", got)
	}
}
