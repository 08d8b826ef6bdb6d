package handlers

import (
	"net/http"
	"net/url"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
)

// ProxyHandler handles per-server proxy configuration requests
type ProxyHandler struct {
	repo           repository.ServerRepository
	profileService *services.ProfileService
	authzService   *services.AuthzService
}

// NewProxyHandler creates a new proxy configuration handler
func NewProxyHandler(
	repo repository.ServerRepository,
	profileService *services.ProfileService,
	authzService *services.AuthzService,
) *ProxyHandler {
	return &ProxyHandler{
		repo:           repo,
		profileService: profileService,
		authzService:   authzService,
	}
}

// Get handles retrieving a server's proxy configuration
func (h *ProxyHandler) Get(c *gin.Context) {
	server := h.authorizedServer(c)
	if server == nil {
		return
	}

	proxy := server.Proxy
	if proxy == nil {
		proxy = &models.ProxyConfig{}
	}

	// Credentials never leave the service
	c.JSON(http.StatusOK, models.ProxyConfig{
		Enabled:       proxy.Enabled,
		ProxyURL:      proxy.ProxyURL,
		ProxyUsername: proxy.ProxyUsername,
	})
}

// Update handles replacing a server's proxy configuration
func (h *ProxyHandler) Update(c *gin.Context) {
	server := h.authorizedServer(c)
	if server == nil {
		return
	}

	var req models.UpdateProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": gin.H{"body": err.Error()},
		})
		return
	}

	if fields := validateProxy(&req); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": fields,
		})
		return
	}

	proxy := &models.ProxyConfig{
		Enabled:       req.Enabled,
		ProxyURL:      req.ProxyURL,
		ProxyUsername: req.ProxyUsername,
		ProxyPassword: req.ProxyPassword,
	}

	if err := h.repo.UpdateProxy(c.Request.Context(), server.Namespace, proxy); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Proxy configuration updated successfully",
	})
}

// validateProxy checks the proxy settings: the URL must be well-formed
// when the proxy is enabled, and credentials must be a complete pair.
func validateProxy(req *models.UpdateProxyRequest) map[string]string {
	fields := make(map[string]string)

	if req.Enabled {
		if req.ProxyURL == "" {
			fields["proxy_url"] = "proxy_url is required when proxy is enabled"
		} else if u, err := url.Parse(req.ProxyURL); err != nil || !u.IsAbs() || u.Host == "" {
			fields["proxy_url"] = "proxy_url must be a well-formed absolute URL"
		}
	}

	if (req.ProxyUsername == "") != (req.ProxyPassword == "") {
		fields["proxy_credentials"] = "proxy username and password must be supplied together"
	}

	return fields
}

func (h *ProxyHandler) authorizedServer(c *gin.Context) *models.McpServer {
	profile := resolveProfile(c, h.profileService)
	if profile == nil {
		return nil
	}

	server, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil
	}

	if err := h.authzService.Authorize(c.Request.Context(), profile, server); err != nil {
		respondError(c, err)
		return nil
	}

	return server
}
