package server

import (
	"fed_courier/shared"
	"golang.org/x/time/rate"
	"net"
	"net/http"
	"strings"
	"sync"
)

const maxTrackedClients = 10000

// clientRateLimiter keeps one token bucket per remote address.
type clientRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientRateLimiter(cfg *shared.Config) *clientRateLimiter {
	return &clientRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(cfg.Inbox.RatePerSec),
		burst:    cfg.Inbox.Burst,
	}
}

func (rl *clientRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		// Start over rather than grow without bound
		if len(rl.limiters) >= maxTrackedClients {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = limiter
	}
	return limiter
}

func (rl *clientRateLimiter) allow(r *http.Request) bool {
	return rl.getLimiter(clientIp(r)).Allow()
}

// clientIp is the first X-Forwarded-For entry when behind a proxy, or the peer address.
func clientIp(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
