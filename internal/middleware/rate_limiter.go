package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// IdleTTL drops a client's bucket after it has gone unused this long.
	IdleTTL time.Duration
}

// RateLimiter keeps one token bucket per client. Clients with a session are
// keyed by wallet address, everyone else by IP.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		config:   config,
		limiters: cache.New(config.IdleTTL, 2*config.IdleTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, found := rl.limiters.Get(key); found {
		lim := v.(*rate.Limiter)
		rl.limiters.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	if err := rl.limiters.Add(key, lim, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same client
		if v, found := rl.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func clientKey(c *gin.Context) string {
	if actor, ok := ActorFrom(c); ok && actor.Address != "" {
		return "wallet:" + actor.Address
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := rl.limiter(clientKey(c))
		if !lim.Allow() {
			retryAfter := 1.0
			if rl.config.Rate > 0 {
				retryAfter = math.Ceil(1 / float64(rl.config.Rate))
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
