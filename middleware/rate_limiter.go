// middleware/rate_limiter.go
package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]struct {
		limit rate.Limit
		burst int
	}
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		mu:            &sync.RWMutex{},
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: make(map[string]struct {
			limit rate.Limit
			burst int
		}),
	}

	// Strict limits on credential endpoints to slow brute force
	limiter.endpointLimits["/api/auth/login"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}

	limiter.endpointLimits["/api/auth/signup"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(500 * time.Millisecond),
		burst: 5,
	}

	// Withdrawal requests should never arrive in bursts from one IP
	limiter.endpointLimits["/api/withdrawals"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(time.Second),
		burst: 3,
	}

	go limiter.cleanupBlockedIPs()

	return limiter
}

func (rl *RateLimiter) cleanupBlockedIPs() {
	for {
		time.Sleep(time.Minute)
		now := time.Now()
		rl.mu.Lock()
		for ip, blockedAt := range rl.blockedIPs {
			if now.Sub(blockedAt) > rl.blockDuration {
				delete(rl.blockedIPs, ip)
				delete(rl.ips, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) limiterFor(ip, path string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := ip + ":" + path
	if existing, ok := rl.ips[key]; ok {
		return existing
	}

	limit, burst := rl.defaultLimit, rl.defaultBurst
	for prefix, cfg := range rl.endpointLimits {
		if strings.HasPrefix(path, prefix) {
			limit, burst = cfg.limit, cfg.burst
			break
		}
	}

	limiter := rate.NewLimiter(limit, burst)
	rl.ips[key] = limiter
	return limiter
}

// RateLimit limits requests per IP, with tighter per-endpoint limits for
// sensitive paths. Repeated violations block the IP temporarily.
func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			rl.mu.RLock()
			blockedAt, blocked := rl.blockedIPs[ip]
			rl.mu.RUnlock()
			if blocked && time.Since(blockedAt) < rl.blockDuration {
				return echo.NewHTTPError(429, "Too many requests, try again later")
			}

			if !rl.limiterFor(ip, c.Request().URL.Path).Allow() {
				rl.mu.Lock()
				rl.blockedIPs[ip] = time.Now()
				rl.mu.Unlock()
				return echo.NewHTTPError(429, "Rate limit exceeded")
			}

			return next(c)
		}
	}
}
