package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/tunevault/internal/auth"
	"github.com/lalith-99/tunevault/internal/middleware"
	"github.com/lalith-99/tunevault/internal/profile"
)

// ProfileHandler exposes listener self-service: profile reads/writes and the
// subscription upgrade.
type ProfileHandler struct {
	svc       *profile.Service
	jwtSecret string
	logger    *zap.Logger
}

func NewProfileHandler(svc *profile.Service, jwtSecret string, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, jwtSecret: jwtSecret, logger: logger}
}

// Get handles GET /v1/profile
//
// A listener with no profile yet gets a 404, not an error payload with a
// stack behind it — absence is a normal state the client handles by
// prompting for first-time setup.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Address  string `json:"address" binding:"required"`
}

// Update handles PUT /v1/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), middleware.GetIdentity(c), req.FullName, req.Address)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Upgrade handles POST /v1/subscription/upgrade
//
// On success the response carries a fresh token minted for the upgraded
// identity — the old token still says "free", and rather than make clients
// re-login we hand them the corrected session state directly.
func (h *ProfileHandler) Upgrade(c *gin.Context) {
	upgraded, err := h.svc.Upgrade(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	token, err := auth.GenerateToken(upgraded, h.jwtSecret, tokenTTL)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:    token,
		TenantID: upgraded.TenantID,
		Role:     string(upgraded.Role),
		Tier:     string(upgraded.Tier),
	})
}
