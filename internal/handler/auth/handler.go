package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/pkg/auth"
)

// Resolver looks a wallet address up in the identity directory.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*model.Identity, error)
}

type Handler struct {
	identity Resolver
	jwt      auth.JWTService
}

func NewHandler(identity Resolver, jwt auth.JWTService) *Handler {
	return &Handler{identity: identity, jwt: jwt}
}

// RegisterLegacyRoutes mounts the unversioned registration check used by the
// wallet login page. Its payloads are flat, not enveloped.
func (h *Handler) RegisterLegacyRoutes(api *gin.RouterGroup) {
	api.GET("/auth", h.CheckRegistration)
}

func (h *Handler) RegisterRoutes(public, _ *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.GET("", h.Resolve)
		auth.POST("/session", h.CreateSession)
	}
}

func (h *Handler) CheckRegistration(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
		return
	}

	identity, err := h.identity.Resolve(c.Request.Context(), address)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("Error checking registration")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check registration status"})
		return
	}

	if !identity.IsRegistered {
		c.JSON(http.StatusNotFound, gin.H{
			"error":        "Wallet not registered. Please register first.",
			"isRegistered": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isRegistered": true,
		"role":         identity.Role,
		"name":         identity.Name,
		"id":           identity.ID,
	})
}

func (h *Handler) Resolve(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("address is required"))
		return
	}

	identity, err := h.identity.Resolve(c.Request.Context(), address)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, identity)
}

type sessionRequest struct {
	Address string `json:"address" binding:"required,wallet"`
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  *model.Identity `json:"identity"`
	Address   string          `json:"address"`
}

// CreateSession issues a session token for a registered address.
func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	identity, err := h.identity.Resolve(c.Request.Context(), req.Address)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if !identity.IsRegistered {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("wallet not registered"))
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(model.Actor{
		Role:    identity.Role,
		Address: req.Address,
		ID:      identity.ID,
		Name:    identity.Name,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusCreated, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  identity,
		Address:   model.ChecksumAddress(req.Address),
	})
}
