package handlers

import (
	"net/http"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
)

// OAuthHandler handles OAuth transaction polling and provider callbacks
type OAuthHandler struct {
	repo           repository.OAuthRepository
	profileService *services.ProfileService
}

// NewOAuthHandler creates a new OAuth transaction handler
func NewOAuthHandler(repo repository.OAuthRepository, profileService *services.ProfileService) *OAuthHandler {
	return &OAuthHandler{
		repo:           repo,
		profileService: profileService,
	}
}

// Get handles the client poll for a transaction's status. Pending
// transactions read past their expiry are transitioned to expired.
func (h *OAuthHandler) Get(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	txn, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if txn.UserId != profile.Id {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this transaction",
		})
		return
	}

	if txn.Status == models.OAuthPending && time.Now().After(txn.ExpiresAt) {
		if err := h.repo.UpdateStatus(c.Request.Context(), txn.Id, models.OAuthExpired); err == nil {
			txn.Status = models.OAuthExpired
		}
	}

	c.JSON(http.StatusOK, txn.ToResponse())
}

// Callback handles the provider's completion callback for a transaction
func (h *OAuthHandler) Callback(c *gin.Context) {
	txn, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if txn.Terminal() {
		c.JSON(http.StatusOK, txn.ToResponse())
		return
	}

	status := models.OAuthCompleted
	if c.Query("error") != "" {
		status = models.OAuthFailed
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), txn.Id, status); err != nil {
		respondError(c, err)
		return
	}

	txn.Status = status
	c.JSON(http.StatusOK, txn.ToResponse())
}
