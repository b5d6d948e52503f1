package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petfinder/petfinder-backend/internal/config"
	"github.com/petfinder/petfinder-backend/internal/http/handlers"
	"github.com/petfinder/petfinder-backend/internal/http/middleware"
	"github.com/petfinder/petfinder-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	petHandler *handlers.PetHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *service.TokenManager,
	users service.UserFinder,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	api := r.Group("/api")

	api.GET("/health", healthHandler.Check)

	authed := middleware.AuthMiddleware(tokenManager, users)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(authed)
	{
		protectedAuth.POST("/resend-verification", authHandler.ResendVerification)
		protectedAuth.GET("/profile", authHandler.GetProfile)
		protectedAuth.PUT("/profile", authHandler.UpdateProfile)
	}

	// Публичные маршруты объявлений
	pets := api.Group("/pets")
	{
		pets.GET("", petHandler.List)
		pets.GET("/search/:query", petHandler.Search)
		pets.GET("/:id", middleware.UUIDValidator("id"), petHandler.Get)

		if cfg.PetStatusOpenUpdate {
			pets.PATCH("/:id/status", middleware.UUIDValidator("id"), petHandler.UpdateStatus)
		} else {
			pets.PATCH("/:id/status", middleware.UUIDValidator("id"), authed, petHandler.UpdateStatus)
		}
	}

	// Защищённые маршруты объявлений
	protectedPets := api.Group("/pets")
	protectedPets.Use(authed)
	{
		protectedPets.POST("", petHandler.Create)
		protectedPets.GET("/user/my-pets", petHandler.MyPets)
	}

	// Модерация
	admin := api.Group("/admin")
	admin.Use(authed, middleware.RequireAdmin())
	{
		admin.GET("/dashboard/stats", adminHandler.DashboardStats)
		admin.GET("/pets", adminHandler.ListPets)
		admin.PATCH("/pets/:id/status", middleware.UUIDValidator("id"), adminHandler.UpdatePetStatus)
		admin.DELETE("/pets/:id", middleware.UUIDValidator("id"), adminHandler.DeletePet)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", middleware.UUIDValidator("id"), adminHandler.UpdateUser)
		admin.DELETE("/users/:id", middleware.UUIDValidator("id"), adminHandler.DeleteUser)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return r
}
