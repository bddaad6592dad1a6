package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/tunevault/internal/errs"
)

// writeError maps core sentinels to HTTP statuses in one place, so every
// handler fails the same way. Anything unrecognized is a store or
// programming failure: log it and answer 500 without leaking internals.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrTenantRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant required"})
	case errors.Is(err, errs.ErrInsufficientRole),
		errors.Is(err, errs.ErrRoleNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": "operation not permitted for this role"})
	case errors.Is(err, errs.ErrAlreadyPremium):
		c.JSON(http.StatusConflict, gin.H{"error": "subscription is already premium"})
	case errors.Is(err, errs.ErrEmptySearchTerm):
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must not be empty"})
	case errors.Is(err, errs.ErrRatingOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0.0 and 5.0"})
	case errors.Is(err, errs.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "required field missing"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
