package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"golang.org/x/time/rate"
)

// ActorLimiter gives every actor its own token bucket of perMinute tokens.
type ActorLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*entry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var _ domain.RateLimiterInterface = (*ActorLimiter)(nil)

// New returns a limiter; perMinute <= 0 disables limiting.
func New(perMinute int) domain.RateLimiterInterface {
	if perMinute <= 0 {
		return NoOpRateLimiter{}
	}
	return newActorLimiter(perMinute, time.Now)
}

func newActorLimiter(perMinute int, now func() time.Time) *ActorLimiter {
	return &ActorLimiter{
		limiters: make(map[int64]*entry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      now,
	}
}

func (l *ActorLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	now := l.now()
	e, ok := l.limiters[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	if e.limiter.AllowN(now, 1) {
		return true
	}
	logutils.Log.WithField("user_id", userID).Debug("Rate limit exceeded")
	return false
}

func (l *ActorLimiter) Reset(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, userID)
}

// Cleanup forgets actors idle for longer than idle and returns how many were dropped.
func (l *ActorLimiter) Cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for id, e := range l.limiters {
		if now.Sub(e.lastSeen) > idle {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *ActorLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(idle); n > 0 {
				logutils.Log.WithField("removed", n).Debug("Rate limiter cleanup completed")
			}
		}
	}
}

// NoOpRateLimiter allows everything.
type NoOpRateLimiter struct{}

func (NoOpRateLimiter) Allow(int64) bool { return true }

func (NoOpRateLimiter) Reset(int64) {}
