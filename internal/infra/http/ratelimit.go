package http

import (
	"net/http"
	"strconv"
	"time"

	"palisade/internal/domain"

	"github.com/gin-gonic/gin"
)

// enforceLoginRateLimit caps attempts per identifier and client address
// so the equal-latency login path cannot be farmed as a guessing
// oracle. Limiter failure fails open: availability over strictness for
// a login endpoint that already merges its failure causes.
func (s *Server) enforceLoginRateLimit(c *gin.Context, identifier string) bool {
	if s.rateLimiter == nil || s.loginRateLimit <= 0 {
		return true
	}
	key := "login:" + identifier + ":" + c.ClientIP()
	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.loginRateLimit, s.loginRateWindow)
	if err != nil {
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
