package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	logger   zerolog.Logger
}

func NewIPRateLimiter(rpm, burst int, logger zerolog.Logger) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(float64(rpm) / 60),
		burst:    burst,
		logger:   logger,
	}
}

func (r *IPRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	cl, ok := r.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep drops limiters idle for longer than limiterIdleTTL.
func (r *IPRateLimiter) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-limiterIdleTTL)
	for ip, cl := range r.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(r.limiters, ip)
		}
	}
}

func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.Allow(ip) {
			r.logger.Warn().Str("client_ip", ip).Str("path", c.FullPath()).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}
