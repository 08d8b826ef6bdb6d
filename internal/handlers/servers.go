package handlers

import (
	"net/http"
	"strings"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
)

// ServerHandler handles MCP server registration and lifecycle requests
type ServerHandler struct {
	repo           repository.ServerRepository
	installService *services.InstallService
	profileService *services.ProfileService
	authzService   *services.AuthzService
	probeService   *services.ProbeService
}

// NewServerHandler creates a new server handler
func NewServerHandler(
	repo repository.ServerRepository,
	installService *services.InstallService,
	profileService *services.ProfileService,
	authzService *services.AuthzService,
	probeService *services.ProbeService,
) *ServerHandler {
	return &ServerHandler{
		repo:           repo,
		installService: installService,
		profileService: profileService,
		authzService:   authzService,
		probeService:   probeService,
	}
}

// Install handles registering a new MCP server
func (h *ServerHandler) Install(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	var req models.InstallServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": gin.H{"body": err.Error()},
		})
		return
	}

	// The elevated request schema is selected by platform-admin status
	elevated, err := h.authzService.IsPlatformAdmin(c.Request.Context(), profile)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.installService.Install(c.Request.Context(), profile, &req, elevated)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{
		"server":  result.Server.ToResponse(),
		"message": "MCP server installed successfully",
	}
	if result.Transaction != nil {
		response["oauth_transaction"] = result.Transaction.ToResponse()
	}

	c.JSON(http.StatusCreated, response)
}

// List handles listing the caller's servers with optional search
func (h *ServerHandler) List(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	searchTerm := c.Query("search")

	servers, err := h.repo.GetByUserId(c.Request.Context(), profile.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve MCP servers",
		})
		return
	}

	responses := make([]models.McpServerResponse, 0)
	for _, server := range servers {
		if searchTerm != "" {
			searchLower := strings.ToLower(searchTerm)
			nameLower := strings.ToLower(server.Name)
			descLower := strings.ToLower(server.Description)

			if !strings.Contains(nameLower, searchLower) && !strings.Contains(descLower, searchLower) {
				continue
			}
		}
		responses = append(responses, server.ToResponse())
	}

	c.JSON(http.StatusOK, models.McpServerListResponse{
		Servers: responses,
		Total:   len(responses),
	})
}

// Get handles retrieving a single MCP server by ID
func (h *ServerHandler) Get(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	server, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.authzService.Authorize(c.Request.Context(), profile, server); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, server.ToResponse())
}

// Stop handles disabling an MCP server. Disable is not delete: the row
// stays and can be re-enabled.
func (h *ServerHandler) Stop(c *gin.Context) {
	h.setEnabled(c, false, "MCP server stopped successfully")
}

// Start handles re-enabling a previously stopped MCP server
func (h *ServerHandler) Start(c *gin.Context) {
	h.setEnabled(c, true, "MCP server started successfully")
}

// Probe checks whether a server URL demands authentication before
// registration. The outbound request aborts after a fixed timeout so a
// slow upstream cannot stall the install flow.
func (h *ServerHandler) Probe(c *gin.Context) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	var req models.ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": gin.H{"body": err.Error()},
		})
		return
	}

	authRequired, err := h.probeService.DetectAuth(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "probe_failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auth_required": authRequired,
	})
}

func (h *ServerHandler) setEnabled(c *gin.Context, enabled bool, message string) {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return
	}

	server, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.authzService.Authorize(c.Request.Context(), profile, server); err != nil {
		respondError(c, err)
		return
	}

	if err := h.repo.SetEnabled(c.Request.Context(), server.Namespace, enabled); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
