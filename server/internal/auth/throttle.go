package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Throttle is a process-wide token bucket in front of the admin endpoints.
// Each admin request triggers two upstream fetches and a table rewrite, so
// bursts are capped before any of that work starts.
type Throttle struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewThrottle allows rps requests per second with the given burst.
// rps <= 0 disables throttling.
func NewThrottle(rps float64, burst int) *Throttle {
	t := &Throttle{}
	t.SetLimit(rps, burst)
	return t
}

// SetLimit replaces the bucket with a full one of the new size.
func (t *Throttle) SetLimit(rps float64, burst int) {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	t.limiter.Store(rate.NewLimiter(limit, burst))
}

// Allow reports whether one more request may proceed now.
func (t *Throttle) Allow() bool {
	return t.limiter.Load().Allow()
}

// Middleware rejects requests over the limit with 429 and a JSON
// {"detail": ...} body.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow() {
			slog.Warn("auth: admin request throttled", "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"detail": "too many requests"}) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}
