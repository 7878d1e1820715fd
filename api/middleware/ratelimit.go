package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/use-agent/scrapeconsole/config"
	"github.com/use-agent/scrapeconsole/models"
)

const (
	maxTrackedClients = 10000
	clientIdleTTL     = time.Hour
)

// RateLimit returns per-client token-bucket limiting. A client is its API
// key when the auth middleware ran, else its IP. Buckets idle for an hour
// are forgotten. A non-positive rate disables limiting.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := max(cfg.Burst, 1)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	// Get refreshes nothing in an expirable LRU, so every hit re-adds the
	// bucket to push its expiry out.
	buckets := expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL)

	return func(c *gin.Context) {
		client := c.ClientIP()
		if key := c.GetString("api_key"); key != "" {
			client = "key:" + key
		}

		limiter, ok := buckets.Get(client)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		}
		buckets.Add(client, limiter)

		if !limiter.Allow() {
			c.Header("Retry-After", retryAfter)
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
