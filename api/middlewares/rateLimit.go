package middlewares

import (
	"net/http"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/tool"
	"golang.org/x/time/rate"
)

// IntakeRateLimit caps image intake per client IP. perSecond <= 0 disables the limit.
func IntakeRateLimit(perSecond int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	var mu sync.Mutex
	limiters := ttlworker.NewCache[string, *rate.Limiter](10 * time.Minute)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		limiter := limiters.Get(ip)
		if limiter == nil {
			limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
		limiters.Set(ip, limiter)
		mu.Unlock()

		if !limiter.Allow() {
			tool.DefaultLogger.Warnf("[RateLimit] Too many intake requests from %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, tool.FastReturnError("Too many requests, slow down"))
			return
		}
		c.Next()
	}
}
