package routes

import (
	"log"

	"fleet-console/internal/api/handlers"
	"fleet-console/internal/api/middleware"
	"fleet-console/internal/repository"
	"fleet-console/internal/services"
	"fleet-console/internal/simulator"
	"fleet-console/internal/ws"
	"fleet-console/pkg/cache"
	"fleet-console/pkg/ratelimit"
	"fleet-console/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies carries the shared infrastructure main has already set up.
type Dependencies struct {
	DB           *mongo.Database
	RedisClient  *redis.Client
	CacheManager cache.CacheManager
	RateLimiter  ratelimit.RateLimiter
	Hub          *ws.Hub
}

// Registry exposes the wired services main needs beyond request handling,
// for the compliance scheduler and the dispatch simulator.
type Registry struct {
	ComplianceService *services.ComplianceService
	DispatchService   *services.DispatchService
	ChauffeurService  *services.ChauffeurService
}

// dispatchAdapter narrows DispatchService to what the simulator needs.
type dispatchAdapter struct {
	svc *services.DispatchService
}

func (a dispatchAdapter) AcceptOffer(tripID string) error {
	_, err := a.svc.AcceptOffer(tripID)
	return err
}

func (a dispatchAdapter) RejectOffer(tripID, reason string) error {
	_, err := a.svc.RejectOffer(tripID, reason)
	return err
}

type onboardingAdapter struct {
	svc *services.ChauffeurService
}

func (a onboardingAdapter) BeginReview(chauffeurID string) error {
	_, err := a.svc.BeginReview(chauffeurID)
	return err
}

// SimulatorAdapters returns the narrow views the responder drives.
func (r *Registry) SimulatorAdapters() (simulator.DispatchAPI, simulator.OnboardingAPI) {
	return dispatchAdapter{svc: r.DispatchService}, onboardingAdapter{svc: r.ChauffeurService}
}

func SetupRoutes(router *gin.Engine, deps Dependencies) *Registry {
	// Initialize repositories
	userRepo := repository.NewUserRepository(deps.DB)
	vehicleRepo := repository.NewVehicleRepository(deps.DB)
	chauffeurRepo := repository.NewChauffeurRepository(deps.DB)
	tripRepo := repository.NewTripRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)
	emailRepo := repository.NewEmailRepository(deps.DB)

	createIndexes(userRepo, vehicleRepo, chauffeurRepo, tripRepo, notificationRepo, emailRepo)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo)
	notificationService.SetHub(deps.Hub)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)

	complianceService := services.NewComplianceService(vehicleRepo, userRepo, emailRepo, notificationService)

	vehicleService := services.NewVehicleService(vehicleRepo, chauffeurRepo, userRepo)
	vehicleService.SetComplianceService(complianceService)
	if deps.CacheManager != nil {
		vehicleService.SetCacheManager(deps.CacheManager)
	}

	chauffeurService := services.NewChauffeurService(chauffeurRepo, vehicleRepo, notificationService)
	tripService := services.NewTripService(tripRepo)
	dispatchService := services.NewDispatchService(tripRepo, chauffeurRepo, vehicleRepo, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	policyHandler := handlers.NewPolicyHandler(vehicleService)
	chauffeurHandler := handlers.NewChauffeurHandler(chauffeurService)
	tripHandler := handlers.NewTripHandler(tripService, dispatchService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, deps.Hub)
	complianceHandler := handlers.NewComplianceHandler(complianceService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient)

	// API routes
	api := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	}

	api.GET("/health", healthHandler.HealthCheck)

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	// Fleet mutations are restricted to admins and fleet managers; reads and
	// the chauffeur-facing offer responses stay open to any authenticated user.
	manager := middleware.RequireRole("admin", "fleet_manager")

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/auth/refresh", authHandler.RefreshToken)
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.POST("/auth/change-password", userHandler.ChangePassword)

		// Vehicles and the assignment ledger
		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.GetVehicles)
			vehicles.POST("", manager, vehicleHandler.CreateVehicle)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.PATCH("/:id", manager, vehicleHandler.UpdateVehicle)
			vehicles.POST("/:id/reassign", manager, vehicleHandler.ReassignVehicle)
			vehicles.DELETE("/:id", manager, vehicleHandler.DeleteVehicle)
		}

		// Usage policy evaluation
		protected.GET("/policy", policyHandler.GetAllPolicies)
		protected.GET("/policy/:employeeId", policyHandler.GetEmployeePolicy)

		// Chauffeurs and onboarding
		chauffeurs := protected.Group("/chauffeurs")
		{
			chauffeurs.GET("", chauffeurHandler.GetChauffeurs)
			chauffeurs.POST("", manager, chauffeurHandler.CreateChauffeur)
			chauffeurs.GET("/:id", chauffeurHandler.GetChauffeur)
			chauffeurs.PATCH("/:id", manager, chauffeurHandler.UpdateChauffeur)
			chauffeurs.POST("/:id/review", chauffeurHandler.BeginReview)
			chauffeurs.POST("/:id/approve", manager, chauffeurHandler.ApproveChauffeur)
			chauffeurs.POST("/:id/reject", manager, chauffeurHandler.RejectChauffeur)
			chauffeurs.DELETE("/:id", manager, chauffeurHandler.DeleteChauffeur)
		}

		// Trips and dispatch
		trips := protected.Group("/trips")
		{
			trips.GET("", tripHandler.GetTrips)
			trips.POST("", tripHandler.CreateTrip)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.PATCH("/:id", tripHandler.UpdateTrip)
			trips.DELETE("/:id", manager, tripHandler.DeleteTrip)
			trips.POST("/:id/dispatch", manager, tripHandler.DispatchTrip)
			trips.POST("/:id/accept", tripHandler.AcceptTrip)
			trips.POST("/:id/reject", tripHandler.RejectTrip)
		}

		// Compliance email audit trail
		protected.GET("/compliance/emails", complianceHandler.GetEmailLog)

		// Notifications
		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
		}

		// User management is restricted to admins and fleet managers
		users := protected.Group("/users")
		users.Use(middleware.RequireRole("admin", "fleet_manager"))
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	// WebSocket endpoint for the live notification feed. Browsers cannot set
	// an Authorization header on the upgrade request, so it stays outside the
	// auth group like the health check.
	api.GET("/notifications/stream", notificationHandler.Stream)

	return &Registry{
		ComplianceService: complianceService,
		DispatchService:   dispatchService,
		ChauffeurService:  chauffeurService,
	}
}

type indexCreator interface {
	CreateIndexes() error
}

func createIndexes(repos ...indexCreator) {
	for _, repo := range repos {
		if err := repo.CreateIndexes(); err != nil {
			log.Printf("Warning: failed to create indexes: %v", err)
		}
	}
}
