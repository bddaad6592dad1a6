package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lalith-99/tunevault/internal/auth"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/middleware"
	"github.com/lalith-99/tunevault/internal/repository"
)

const tokenTTL = 24 * time.Hour

// AuthHandler handles signup and login — the only PUBLIC endpoints. The core
// never authenticates anyone; this handler is the "external collaborator"
// that turns credentials into an Identity and hands it onward as a JWT.
type AuthHandler struct {
	accounts  repository.AccountRepository
	tenants   repository.TenantRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(
	accounts repository.AccountRepository,
	tenants repository.TenantRepository,
	jwtSecret string,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		tenants:   tenants,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type signupRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token    string    `json:"token"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
	Tier     string    `json:"tier,omitempty"`
}

// Signup handles POST /v1/auth/signup
//
// Creates a new tenant with its first admin account. Further accounts
// (distributors, listeners) are created by that admin via POST /v1/accounts.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	tenant, err := h.tenants.Create(c.Request.Context(), req.TenantName)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), tenant.ID,
		req.Username, string(hash), string(identity.RoleAdmin), string(identity.TierNone))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.issueToken(c, http.StatusCreated, identity.Identity{
		TenantID: tenant.ID,
		Username: account.Username,
		Role:     identity.RoleAdmin,
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return
	}

	account, err := h.accounts.GetByUsername(c.Request.Context(), tenantID, req.Username)
	if err != nil {
		h.logger.Error("failed to load account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	// Same answer for unknown username and wrong password — don't reveal
	// which half failed.
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	role, ok := identity.ParseRole(account.Role)
	if !ok {
		h.logger.Error("account has unknown role", zap.String("role", account.Role))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	tier, _ := identity.ParseTier(account.Tier)

	h.issueToken(c, http.StatusOK, identity.Identity{
		TenantID: account.TenantID,
		Username: account.Username,
		Role:     role,
		Tier:     tier,
	})
}

type createAccountRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// CreateAccount handles POST /v1/accounts (admin only).
//
// New listeners start on the free tier; an admin cannot mint premium
// accounts directly — the upgrade path is the listener's own.
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if id.Role != identity.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "operation not permitted for this role"})
		return
	}

	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := identity.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be admin, distributor, or listener"})
		return
	}
	tier := identity.TierNone
	if role == identity.RoleListener {
		tier = identity.TierFree
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), id.TenantID,
		req.Username, string(hash), string(role), string(tier))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, id identity.Identity) {
	token, err := auth.GenerateToken(id, h.jwtSecret, tokenTTL)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, authResponse{
		Token:    token,
		TenantID: id.TenantID,
		Role:     string(id.Role),
		Tier:     string(id.Tier),
	})
}
