package handler

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
)

type visitor struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a fixed-window counter keyed by client IP. Expired windows
// are pruned lazily, at most once per window.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     int
	window    time.Duration
	now       func() time.Time
	nextPrune time.Time
}

// NewRateLimiter allows limit requests per window per key. A non-positive
// limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records one request for key. When the quota is spent it returns false
// and the time until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	v, ok := rl.visitors[key]
	if !ok || !now.Before(v.windowEnd) {
		rl.visitors[key] = &visitor{count: 1, windowEnd: now.Add(rl.window)}
		return true, 0
	}
	if v.count >= rl.limit {
		return false, v.windowEnd.Sub(now)
	}
	v.count++
	return true, 0
}

func (rl *RateLimiter) prune(now time.Time) {
	if now.Before(rl.nextPrune) {
		return
	}
	for k, v := range rl.visitors {
		if !now.Before(v.windowEnd) {
			delete(rl.visitors, k)
		}
	}
	rl.nextPrune = now.Add(rl.window)
}

// Middleware rejects requests over quota with 429.
func (rl *RateLimiter) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, retry := rl.Allow(ip)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				handleServiceError(w, &domain.ErrRateLimited{Key: ip}, "", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
