package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"storefront/internal/service/session"
)

// requireResolved holds gated routes back until the session has been
// restored; the UI shows its loading state on 503.
func requireResolved(s SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.State() == session.StateUnresolved {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		}
		c.Next()
	}
}

func requireAuthenticated(s SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.State() != session.StateAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// limitAttempts caps sign-in and sign-up calls forwarded to the remote. A nil
// limiter lets everything through.
func limitAttempts(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.Allow() {
			c.Next()
			return
		}
		retryAfter := max(int(1.0/float64(l.Limit())), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many attempts, try again shortly"})
	}
}
