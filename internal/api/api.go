package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	analysis_module "github.com/ethanbaker/lp-analysis/internal/api/modules/analysis"
	health_module "github.com/ethanbaker/lp-analysis/internal/api/modules/health"
	session_module "github.com/ethanbaker/lp-analysis/internal/api/modules/session"
	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/pkg/utils"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8000")
	uploadDir := cfg.GetWithDefault("UPLOAD_DIR", "uploads")

	// Shared capabilities: session store and normalized image storage
	store := session.NewInMemoryStore()

	storage, err := images.NewStorage(uploadDir)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to create upload storage: ", err)
	}
	normalizer := images.NewNormalizer(storage)

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-OpenAI-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Service banner and static serving of normalized images
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "LP Analysis API",
			"version": "2.0.0",
		})
	})
	engine.Static("/uploads", uploadDir)

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	session_module.RegisterRoutes(baseGroup)
	session_module.Init(store, normalizer)

	analysis_module.RegisterRoutes(baseGroup)
	if err := analysis_module.Init(cfg, store, storage); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize analysis module: ", err)
	}

	// Reclaim orphaned uploads on a schedule, when configured
	if spec := cfg.Get("UPLOAD_CLEANUP_CRON"); spec != "" {
		maxAge := time.Duration(cfg.GetIntWithDefault("UPLOAD_MAX_AGE_HOURS", 24)) * time.Hour
		janitor := images.NewJanitor(storage, maxAge, func() map[string]bool {
			return referencedUploads(store)
		})

		if err := janitor.Start(spec); err != nil {
			log.Printf("[API-MAIN]: Warning, could not start upload janitor: %v", err)
		}
	}

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// referencedUploads collects every filename currently referenced by a session
func referencedUploads(store session.Store) map[string]bool {
	inUse := make(map[string]bool)

	sessions, err := store.List(context.Background())
	if err != nil {
		return inUse
	}

	for _, sess := range sessions {
		if sess.ImageAFilename != "" {
			inUse[sess.ImageAFilename] = true
		}
		if sess.ImageBFilename != "" {
			inUse[sess.ImageBFilename] = true
		}
	}

	return inUse
}
