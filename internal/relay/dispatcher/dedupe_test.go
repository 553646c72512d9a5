package dispatcher

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRecentSetMarkAndSeen(t *testing.T) {
	s := NewRecentSet(time.Minute, zap.NewNop())

	if s.Seen("sig-1") {
		t.Fatal("fresh set must not contain sig-1")
	}
	s.Mark("sig-1")
	if !s.Seen("sig-1") {
		t.Fatal("marked signature must be seen")
	}
	if s.Seen("sig-2") {
		t.Fatal("unmarked signature must not be seen")
	}
}

func TestRecentSetClearsWholeWindow(t *testing.T) {
	s := NewRecentSet(20*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Mark("sig-1")
	s.Mark("sig-2")

	deadline := time.After(time.Second)
	for s.Seen("sig-1") || s.Seen("sig-2") {
		select {
		case <-deadline:
			t.Fatal("recent set was not cleared within the interval")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
