package middleware

import (
	"net/http"
	"sync"
	"time"

	"dawaam/internal/transport/http/api"
	"dawaam/internal/transport/http/shared"
)

// RateLimit applies a fixed-window per-client-IP limit. Windows reset
// every minute; counters for idle clients are pruned on rollover.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		window  time.Time
		counts  = make(map[string]int)
		nowFunc = time.Now
	)

	allow := func(key string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := nowFunc().Truncate(time.Minute)
		if !now.Equal(window) {
			window = now
			counts = make(map[string]int)
		}
		counts[key]++
		return counts[key] <= perMinute
	}

	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(shared.ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
