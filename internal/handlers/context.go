package handlers

import (
	"errors"
	"net/http"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// resolveProfile reads the authenticated identity set by the auth
// middleware and materializes the local profile row. It writes the error
// response itself and returns nil when the request should not proceed.
func resolveProfile(c *gin.Context, profileService *services.ProfileService) *models.Profile {
	userId, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User ID not found in context",
		})
		return nil
	}

	userIdStr, ok := userId.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Invalid user ID format",
		})
		return nil
	}

	claims := map[string]interface{}{}
	if raw, exists := c.Get("token_claims"); exists {
		if mapClaims, ok := raw.(jwt.MapClaims); ok {
			claims = mapClaims
		}
	}

	profile, err := profileService.Sync(c.Request.Context(), userIdStr, claims)
	if err != nil {
		if errors.Is(err, services.ErrProfileMissing) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "profile_missing",
				"message": "Profile could not be resolved or created",
			})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to resolve profile",
		})
		return nil
	}

	return profile
}

// respondError maps service and repository errors onto the HTTP error
// taxonomy: 400 validation, 403 forbidden, 404 not found, 500 otherwise
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": validationErr.Fields,
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to perform this action",
		})
	case errors.Is(err, services.ErrRegistryUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "registry_unavailable",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrScopeIntegrity):
		// Data integrity fault; do not leak the inconsistency
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Internal server error",
		})
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrOAuthTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Record not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "persistence_error",
			"details": err.Error(),
		})
	}
}
