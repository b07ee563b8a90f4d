package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-console/internal/api/routes"
	"fleet-console/internal/config"
	"fleet-console/internal/simulator"
	"fleet-console/internal/ws"
	"fleet-console/pkg/cache"
	"fleet-console/pkg/database"
	"fleet-console/pkg/email"
	"fleet-console/pkg/ratelimit"
	"fleet-console/pkg/redis"
	"fleet-console/pkg/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// Cache and rate limiting run against Redis when available, with an
	// in-memory limiter as fallback so the API never goes unprotected.
	var cacheManager cache.CacheManager
	var rateLimiter ratelimit.RateLimiter
	if healthStatus.IsConnected {
		cacheManager = cache.NewDefaultCacheManager(redisClient)
		rateLimiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), ratelimit.DefaultConfig())
	} else {
		rateLimiter = ratelimit.NewMemoryRateLimiter(ratelimit.DefaultConfig())
	}

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	hub := ws.NewHub()
	registry := routes.SetupRoutes(router, routes.Dependencies{
		DB:           db,
		RedisClient:  redisClient,
		CacheManager: cacheManager,
		RateLimiter:  rateLimiter,
		Hub:          hub,
	})

	// Outbound compliance mail goes through SMTP when configured; the
	// email log in MongoDB is kept either way.
	relay := email.NewRelay(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if relay.Enabled() {
		registry.ComplianceService.SetEmailRelay(relay)
		log.Printf("SMTP relay enabled via %s", cfg.SMTP.Host)
	}

	// Daily document expiry checks
	complianceScheduler := scheduler.NewComplianceScheduler(registry.ComplianceService, cfg.Compliance.CheckInterval)
	go complianceScheduler.Start()
	defer complianceScheduler.Stop()

	// Simulated chauffeur responses for environments without a mobile client
	if cfg.Simulator.Enabled {
		dispatchAPI, onboardingAPI := registry.SimulatorAdapters()
		responder := simulator.NewResponder(simulator.Config{
			Enabled:          true,
			MinResponseDelay: cfg.Simulator.MinResponseDelay,
			MaxResponseDelay: cfg.Simulator.MaxResponseDelay,
			AcceptRate:       cfg.Simulator.AcceptRate,
			OnboardingDelay:  cfg.Simulator.OnboardingDelay,
		}, dispatchAPI, onboardingAPI)
		registry.DispatchService.SetOfferListener(responder)
		registry.ChauffeurService.SetChauffeurListener(responder)
		defer responder.Stop()
		log.Printf("Chauffeur responder enabled (accept rate %.2f)", cfg.Simulator.AcceptRate)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
