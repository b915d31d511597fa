package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/templui/taskpilot/internal/ctxkeys"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token bucket per key (client IP or user id).
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	rate       rate.Limit
	burst      int
	retryAfter int
	ttl        time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiter allows perMinute requests per key, with the full minute's
// allowance available as a burst. Zero disables the limit. Idle keys are
// forgotten after ten minutes.
func NewRateLimiter(perMinute int) *RateLimiter {
	limit := rate.Inf
	retryAfter := 1
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
		retryAfter = max(int(math.Ceil(60.0/float64(perMinute))), 1)
	}

	rl := &RateLimiter{
		limiters:   make(map[string]*clientLimiter),
		rate:       limit,
		burst:      max(perMinute, 1),
		retryAfter: retryAfter,
		ttl:        10 * time.Minute,
		stopCh:     make(chan struct{}),
	}

	// Start cleanup goroutine to prevent memory leak
	go rl.cleanupLoop()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow reports whether a request for key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Limit rejects requests over the limit with 429. Behind RequireAuth the key
// is the user id, otherwise the client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limitKey(r)

		if !rl.Allow(key) {
			slog.Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
			)

			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter))
			WriteJSON(w, http.StatusTooManyRequests, ErrorResponseBody{
				Error: "Too many requests. Please try again later.",
				Code:  "rate_limited",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > rl.ttl {
			delete(rl.limiters, key)
		}
	}
}

func limitKey(r *http.Request) string {
	if user := ctxkeys.User(r.Context()); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + getClientIP(r)
}

// getClientIP extracts real client IP from request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Take first IP in list
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}
