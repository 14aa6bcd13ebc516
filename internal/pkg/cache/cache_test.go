package cache

import (
	"testing"
	"time"
)

func TestGetExpiresLazily(t *testing.T) {
	c := New(time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("courses:list:1", "page-one", 0)

	if v, ok := c.Get("courses:list:1"); !ok || v != "page-one" {
		t.Fatalf("expected fresh hit, got %v ok=%v", v, ok)
	}

	current = current.Add(2 * time.Minute)

	if _, ok := c.Get("courses:list:1"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Fatalf("expected expired entry to be evicted, size=%d", c.Size())
	}
}

func TestDeletePattern(t *testing.T) {
	c := New(time.Minute)
	c.Set("courses:list:1", 1, 0)
	c.Set("courses:list:2", 2, 0)
	c.Set("course:42", 3, 0)

	if err := c.DeletePattern(`^courses:list:`); err != nil {
		t.Fatalf("delete pattern: %v", err)
	}

	if _, ok := c.Get("courses:list:1"); ok {
		t.Fatalf("expected list entries removed")
	}
	if _, ok := c.Get("course:42"); !ok {
		t.Fatalf("expected unrelated entry to survive")
	}
}

func TestDeletePatternRejectsBadRegexp(t *testing.T) {
	c := New(time.Minute)
	if err := c.DeletePattern(`(`); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestCleanExpired(t *testing.T) {
	c := New(time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Hour)

	current = current.Add(5 * time.Minute)

	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 survivor, size=%d", c.Size())
	}
}
