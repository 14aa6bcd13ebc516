package cleanup

import (
	"testing"
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/cache"
)

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("stale", "v", time.Nanosecond)
	c.Set("fresh", "v", time.Minute)

	s := NewSweeper(c, time.Minute, nil)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 entry to remain, got %d", c.Size())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive the sweep")
	}
}

func TestSweepOnEmptyCacheIsNoop(t *testing.T) {
	s := NewSweeper(cache.New(time.Minute), time.Minute, nil)

	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("expected 0 removed entries, got %d", removed)
	}
}

func TestStartStopWithoutCacheDoesNotBlock(t *testing.T) {
	s := NewSweeper(nil, time.Millisecond, nil)
	s.Start()
	s.Stop()
}

func TestStopTerminatesRunningSweeper(t *testing.T) {
	s := NewSweeper(cache.New(time.Minute), time.Millisecond, nil)
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop in time")
	}
}
