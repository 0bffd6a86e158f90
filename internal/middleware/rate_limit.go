package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type rateWindow struct {
	count      int
	windowEnds time.Time
}

// IPRateLimiter is a fixed-window per-IP counter. It guards the login and
// import routes; everything else goes unthrottled.
type IPRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]rateWindow
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &IPRateLimiter{
		limit:   limit,
		window:  window,
		windows: map[string]rateWindow{},
	}
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r.RemoteAddr)) {
				writeError(w, r, http.StatusTooManyRequests, "rate_limited", message, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry := rl.windows[ip]
	if entry.windowEnds.Before(now) {
		entry = rateWindow{count: 0, windowEnds: now.Add(rl.window)}
	}
	entry.count++
	rl.windows[ip] = entry
	return entry.count <= rl.limit
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
