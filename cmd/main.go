package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/config"
	"github.com/atoms-tech/mcpregistry/internal/database"
	"github.com/atoms-tech/mcpregistry/internal/handlers"
	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/middleware"
	"github.com/atoms-tech/mcpregistry/internal/queue"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/router"
	"github.com/atoms-tech/mcpregistry/internal/schema"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {

	ctx := context.Background()

	// Load application configuration
	cfg := config.New()
	log.Println("Configuration loaded successfully")

	// Initialize logger
	logger.Init(cfg.LogLevel)

	// Load the active schema revision (the application-side mirror of
	// the store's check constraints)
	revision, err := schema.Select(cfg.SchemaRevisionsFile, cfg.SchemaRevision)
	if err != nil {
		log.Fatalf("Failed to load schema revision: %v", err)
	}
	log.Printf("Active schema revision: %s", revision.Name)

	// Initialize database configuration
	dbConfig := database.NewConfig(cfg)

	log.Printf("Initializing DynamoDB client for table: %s in region: %s", dbConfig.ServersTableName, dbConfig.Region)

	// Create DynamoDB client
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to initialize DynamoDB client: %v", err)
	}

	log.Println("DynamoDB client initialized successfully")

	// Initialize database operations
	serverStore := database.NewServerStore(dbClient, cfg.ServersTableName, revision)
	profileDB := database.NewProfileDB(dbClient, cfg.ProfilesTableName, cfg.MembershipsTableName, cfg.AdminsTableName)
	oauthDB := database.NewOAuthDB(dbClient, cfg.TransactionsTableName)
	log.Println("Database operations initialized")

	// Initialize repositories
	serverRepo := repository.NewServerRepository(serverStore)
	profileRepo := repository.NewProfileRepository(profileDB)
	oauthRepo := repository.NewOAuthRepository(oauthDB)
	log.Println("Repositories initialized with DynamoDB backend")

	// Initialize services
	registryService := services.NewRegistryService(cfg.RegistryURL)
	reconcilerService := services.NewReconcilerService(registryService, serverRepo, revision)
	profileService := services.NewProfileService(profileRepo)
	authzService := services.NewAuthzService(profileRepo)
	installService := services.NewInstallService(serverRepo, profileRepo, oauthRepo, revision)
	probeService := services.NewProbeService(cfg.ProbeTimeout)
	log.Println("Services initialized")

	// Initialize job queue for background reconciliation
	jobQueue := queue.NewJobQueue(10)
	workerPool := queue.NewWorkerPool(jobQueue, 1)
	workerPool.Start(func(job *queue.ReconcileJob) error {
		if job.ImportNew {
			if _, err := reconcilerService.ImportNew(ctx); err != nil {
				return err
			}
		}
		_, err := reconcilerService.Reconcile(ctx)
		return err
	})
	log.Println("Reconcile worker started")

	// Schedule interval-driven reconciliation when configured
	var ticker *time.Ticker
	if cfg.RegistrySyncInterval > 0 {
		ticker = time.NewTicker(cfg.RegistrySyncInterval)
		go func() {
			for range ticker.C {
				_ = jobQueue.Enqueue(&queue.ReconcileJob{
					Id:      uuid.New().String(),
					Trigger: "interval",
				})
			}
		}()
		log.Printf("Background registry sync scheduled every %s", cfg.RegistrySyncInterval)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	serverHandler := handlers.NewServerHandler(serverRepo, installService, profileService, authzService, probeService)
	proxyHandler := handlers.NewProxyHandler(serverRepo, profileService, authzService)
	registryHandler := handlers.NewRegistryHandler(registryService, reconcilerService, profileService, authzService)
	oauthHandler := handlers.NewOAuthHandler(oauthRepo, profileService)
	log.Println("Handlers initialized")

	// Select the auth middleware: full signature verification when the
	// identity provider is configured
	var auth gin.HandlerFunc
	if cfg.VerifiedAuth() {
		auth = middleware.AuthenticationVerified(middleware.NewIdentityConfig(
			cfg.IdentityIssuer,
			cfg.IdentityJWKSURL,
			cfg.IdentityAudience,
		))
		log.Println("JWT signature verification enabled")
	} else {
		auth = middleware.Authentication()
		log.Println("JWT signature verification disabled (dev mode)")
	}

	// Setup router
	r := router.Setup(auth, healthHandler, serverHandler, proxyHandler, registryHandler, oauthHandler)

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down server gracefully...")

		if ticker != nil {
			ticker.Stop()
		}

		// Close job queue to stop accepting new jobs
		jobQueue.Close()
		log.Println("Job queue closed, waiting for workers to finish...")

		// Wait for workers to finish processing current jobs
		workerPool.Wait()
		log.Println("All workers stopped")

		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
