package router

import (
	"github.com/atoms-tech/mcpregistry/internal/handlers"
	"github.com/atoms-tech/mcpregistry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Setup configures and returns the application router
func Setup(
	auth gin.HandlerFunc,
	healthHandler *handlers.HealthHandler,
	serverHandler *handlers.ServerHandler,
	proxyHandler *handlers.ProxyHandler,
	registryHandler *handlers.RegistryHandler,
	oauthHandler *handlers.OAuthHandler,
) *gin.Engine {

	// Create a new Gin router
	router := gin.Default()

	// Apply CORS middleware globally
	router.Use(middleware.CORS())

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Provider callback carries no user token; the transaction id is the
	// only credential, so it stays outside the authenticated group.
	v1.POST("/oauth/transactions/:id/callback", oauthHandler.Callback)

	// Apply authentication middleware to all remaining routes
	v1.Use(auth)

	// Health check
	v1.GET("/health", healthHandler.Check)

	// Server routes
	servers := v1.Group("/servers")
	{
		servers.POST("", serverHandler.Install)
		servers.GET("", serverHandler.List)
		servers.POST("/probe", serverHandler.Probe)
		servers.GET("/:id", serverHandler.Get)
		servers.POST("/:id/stop", serverHandler.Stop)
		servers.POST("/:id/start", serverHandler.Start)
		servers.GET("/:id/proxy", proxyHandler.Get)
		servers.POST("/:id/proxy", proxyHandler.Update)
	}

	// Registry routes
	registry := v1.Group("/registry")
	{
		registry.GET("/servers", registryHandler.List)
		registry.POST("/sync", registryHandler.Sync)
	}

	// OAuth transaction polling
	oauth := v1.Group("/oauth")
	{
		oauth.GET("/transactions/:id", oauthHandler.Get)
	}

	return router
}
