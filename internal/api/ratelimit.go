package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pantryapp/pantry-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// The limiter itself works in requests per second.
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// checkAuthRate enforces the per-IP limit on credential endpoints.
// Login, register, and refresh all share one limiter so an attacker
// cannot rotate between them.
func (s *Server) checkAuthRate(ip string) error {
	if ip == "" {
		ip = "unknown"
	}

	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("auth rate limit exceeded", "ip", ip)
		return huma.Error429TooManyRequests("Too many authentication attempts. Please try again later.")
	}

	return nil
}
