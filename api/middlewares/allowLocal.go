package middlewares

import (
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// IsLoopbackClient reports whether the request comes from this machine. It relies on
// ClientIP, so the engine must not trust forwarding headers from arbitrary peers.
func IsLoopbackClient(c *gin.Context) bool {
	ip := net.ParseIP(c.ClientIP())
	return ip != nil && ip.IsLoopback()
}

func OnlyAllowLocal(c *gin.Context) {
	if IsLoopbackClient(c) {
		c.Next()
	} else {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// LocalUnlessLan restricts to loopback unless allowLan is set, in which case a phone on the
// same network may use the API after opening the capture link.
func LocalUnlessLan(allowLan bool) gin.HandlerFunc {
	if allowLan {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return OnlyAllowLocal
}

// AllowCORS lets the listed origins (a dev server of the web UI on another port, say) call
// the API. Other origins get no CORS headers, and their preflight is refused.
func AllowCORS(origins []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		allowed = append(allowed, strings.TrimRight(origin, "/"))
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		c.Header("Vary", "Origin")
		if !slices.Contains(allowed, origin) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
