package handlers

import (
	"errors"
	"net/http"

	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
)

// RegistryHandler handles upstream registry listing and reconciliation
type RegistryHandler struct {
	registryService   *services.RegistryService
	reconcilerService *services.ReconcilerService
	profileService    *services.ProfileService
	authzService      *services.AuthzService
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(
	registryService *services.RegistryService,
	reconcilerService *services.ReconcilerService,
	profileService *services.ProfileService,
	authzService *services.AuthzService,
) *RegistryHandler {
	return &RegistryHandler{
		registryService:   registryService,
		reconcilerService: reconcilerService,
		profileService:    profileService,
		authzService:      authzService,
	}
}

// respondSyncError maps a reconciliation failure. Upstream unavailability
// gets the same 502 the catalog listing uses; anything else is a local
// sync failure.
func respondSyncError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrRegistryUnavailable) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "sync_failed",
		"details": err.Error(),
	})
}

// List handles listing the upstream registry catalog
func (h *RegistryHandler) List(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	servers, err := h.registryService.FetchServers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"servers": servers,
		"total":   len(servers),
	})
}

// Sync handles the registry reconciliation run. Platform admins only.
// With ?import=true, registry entries missing locally are imported first.
func (h *RegistryHandler) Sync(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	admin, err := h.authzService.IsPlatformAdmin(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Registry sync requires platform admin",
		})
		return
	}

	imported := make([]services.RowResult, 0)
	if c.Query("import") == "true" {
		imported, err = h.reconcilerService.ImportNew(c.Request.Context())
		if err != nil {
			respondSyncError(c, err)
			return
		}
	}

	repaired, err := h.reconcilerService.Reconcile(c.Request.Context())
	if err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"repaired": repaired,
	})
}
