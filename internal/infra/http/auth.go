package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"palisade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalContextKey = "principal"

// accessFilter is the first stage of every route's chain. It extracts
// and decodes the bearer token, attaches the per-request principal, and
// then runs the route's role check when the route demands one. Any
// decode failure collapses to a single external 401; the precise cause
// only reaches the log, keyed by request id.
func (s *Server) accessFilter(entry domain.RoutePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		access := domain.RouteAccess{
			Method:        entry.Method,
			Pattern:       entry.Pattern,
			Path:          c.Request.URL.Path,
			RequiredRoles: entry.RequiredRoles,
		}

		var principal domain.Principal
		raw := extractBearerToken(c.GetHeader("Authorization"))
		switch {
		case raw == "":
			if !s.regoMode && !entry.Public() {
				writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
				c.Abort()
				return
			}
			// Anonymous passthrough; rego mode still gets its say below.
		default:
			decoded, err := s.codec.Decode(raw, time.Now())
			if err != nil {
				s.logAuthFailure(c, err)
				writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired credentials")
				c.Abort()
				return
			}
			principal = decoded
		}
		c.Set(principalContextKey, principal)

		if s.regoMode || !entry.Public() {
			if err := s.authorizer.Authorize(c.Request.Context(), principal, access); err != nil {
				writeAuthzError(c, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func extractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(value), "bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("bearer "):])
}

func getPrincipal(c *gin.Context) (domain.Principal, bool) {
	raw, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := raw.(domain.Principal)
	return principal, ok
}

func (s *Server) logAuthFailure(c *gin.Context, err error) {
	cause := "malformed"
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		cause = "expired"
	case errors.Is(err, domain.ErrBadSignature):
		cause = "bad_signature"
	}
	s.log.Info("rejected bearer token",
		zap.String("cause", cause),
		zap.String("path", c.Request.URL.Path),
		zap.String(requestIDKey, c.GetString(requestIDKey)),
	)
}

func writeAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "insufficient role")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "authorization failed")
	}
}
