package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter pairs a token bucket with its last activity, so idle
// clients can be evicted without resetting everyone's buckets.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket, keyed by IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether a request from the client may proceed, refreshing
// its activity timestamp.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()
	return cl.bucket.Allow()
}

// Evict drops clients idle for longer than maxIdle.
func (rl *RateLimiter) Evict(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	rl.mu.Lock()
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	rl.mu.Unlock()
}

// RateLimit limits requests per client IP. Trusts X-Real-IP when the RealIP
// middleware has set it, falling back to the connection's remote address.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rps, burst)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Evict(10 * time.Minute)
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.Allow(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
