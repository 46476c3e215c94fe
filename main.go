package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okumurakoki/contractguard-sub001/config"
	"github.com/okumurakoki/contractguard-sub001/handler"
	"github.com/okumurakoki/contractguard-sub001/middleware"
	"github.com/okumurakoki/contractguard-sub001/pkg/logger"
	"github.com/okumurakoki/contractguard-sub001/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Database handle is constructed once here and injected everywhere
	db, err := service.OpenDatabase(&cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}

	// Ensure bucket exists
	if err := minioSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	// Real analysis engine only when a credential is configured; the
	// pipeline falls back to the mock engine otherwise.
	var realEngine service.Engine
	if cfg.AI.APIKey != "" {
		engine, err := service.NewAIEngine(&cfg.AI)
		if err != nil {
			slog.Error("failed to initialize AI engine", "error", err)
			os.Exit(1)
		}
		realEngine = engine
	} else {
		slog.Warn("no AI credential configured, analysis will use the mock engine")
	}

	contractStore := service.NewContractStore(db)
	versionStore := service.NewVersionStore(db)
	reviewStore := service.NewReviewStore(db)
	auditor := service.NewAuditor(db)
	analyzer := service.NewAnalysisService(contractStore, reviewStore, minioSvc, realEngine, auditor, cfg.AI.ForceMock)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	urlTTL := time.Duration(cfg.Minio.URLExpiryMin) * time.Minute
	contractHandler := handler.NewContractHandler(contractStore, versionStore, reviewStore, minioSvc, analyzer, auditor, urlTTL)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.GET("/contracts/:id/status", contractHandler.GetStatus)
		protected.GET("/contracts/:id/download", contractHandler.Download)
		protected.DELETE("/contracts/:id", contractHandler.Delete)
		protected.POST("/contracts/:id/analyze", contractHandler.Analyze)
		protected.GET("/contracts/:id/review", contractHandler.GetReview)
		protected.PUT("/contracts/:id/content", contractHandler.UpdateContent)
		protected.GET("/contracts/:id/versions", contractHandler.ListVersions)
		protected.POST("/contracts/:id/versions/:versionId/restore", contractHandler.RestoreVersion)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
