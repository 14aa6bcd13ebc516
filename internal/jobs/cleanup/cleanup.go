package cleanup

import (
	"time"

	"go.uber.org/zap"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/cache"
)

const defaultInterval = 10 * time.Minute

// Sweeper periodically drops expired entries from the in-process
// listing cache. Expired entries are also evicted lazily on read; the
// sweep only reclaims memory for keys nobody asks for anymore. It never
// touches the refresh token registry, which evicts on its own.
type Sweeper struct {
	cache    *cache.Cache
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(c *cache.Cache, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		cache:    c,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	if s.cache == nil {
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Sweep() int {
	if s.cache == nil {
		return 0
	}
	removed := s.cache.CleanExpired()
	if removed > 0 {
		s.logger.Debug("cache sweep completed", zap.Int("removed", removed))
	}
	return removed
}

func (s *Sweeper) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
