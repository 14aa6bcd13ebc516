package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const loginWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter is a fixed window limiter for login attempts, keyed by
// client IP. With no store configured it allows everything, which is
// the single-instance dev setup without redis.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	return &Limiter{store: store, perMinute: perMinute}
}

// AllowLogin reports whether another attempt from ip is allowed and,
// when it is not, how many seconds to wait.
func (l *Limiter) AllowLogin(ctx context.Context, ip string) (bool, int64, error) {
	if l.store == nil || l.perMinute <= 0 {
		return true, 0, nil
	}
	if strings.TrimSpace(ip) == "" {
		return true, 0, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, loginKey(ip), loginWindow)
	if err != nil {
		return false, 0, fmt.Errorf("increment login window: %w", err)
	}

	if count > int64(l.perMinute) {
		return false, ceilSeconds(ttl), nil
	}

	return true, 0, nil
}

func loginKey(ip string) string {
	return "rate:login:" + ip
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
