package http

import (
	"errors"
	"net/http"

	"palisade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if !s.enforceLoginRateLimit(c, req.Identifier) {
		return
	}

	signed, err := s.login.Login(c.Request.Context(), req.Identifier, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			// Unknown identifier and wrong secret share one response.
			s.log.Info("login rejected",
				zap.String("cause", err.Error()),
				zap.String(requestIDKey, c.GetString(requestIDKey)),
			)
			writeErrorCode(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
		case errors.Is(err, domain.ErrStoreUnavailable):
			s.log.Warn("credential store unavailable",
				zap.Error(err),
				zap.String(requestIDKey, c.GetString(requestIDKey)),
			)
			writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "try again later")
		default:
			s.log.Error("login failed",
				zap.Error(err),
				zap.String(requestIDKey, c.GetString(requestIDKey)),
			)
			writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: signed})
}

func (s *Server) handleHealthz(c *gin.Context) {
	mode := "no-db"
	if s.store != nil && s.store.DB != nil {
		mode = "db"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
}

func (s *Server) handleWhoAmI(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok || principal.Anonymous() {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject": principal.Subject,
		"roles":   principal.Roles,
	})
}

// The catalog, cart, and order handlers below stand in for the shop
// collaborators this service fronts. They only demonstrate the gate;
// their real implementations live in the surrounding application.

type catalogItem struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price int64  `json:"price_cents"`
}

func (s *Server) handleCatalogList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": []catalogItem{
		{SKU: "TEE-001", Name: "Logo Tee", Price: 1900},
		{SKU: "MUG-014", Name: "Enamel Mug", Price: 1200},
	}})
}

func (s *Server) handleCatalogCreate(c *gin.Context) {
	var item catalogItem
	if err := c.ShouldBindJSON(&item); err != nil || item.SKU == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleCatalogDelete(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("sku")})
}

func (s *Server) handleOrdersList(c *gin.Context) {
	principal, _ := getPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"subject": principal.Subject,
		"orders":  []any{},
	})
}

type cartAddRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (s *Server) handleCartAdd(c *gin.Context) {
	var req cartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SKU == "" || req.Quantity <= 0 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	principal, _ := getPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"subject":  principal.Subject,
		"sku":      req.SKU,
		"quantity": req.Quantity,
	})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
