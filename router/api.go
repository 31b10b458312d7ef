package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/painelbi/painel/auth"
	"github.com/painelbi/painel/authz"
	"github.com/painelbi/painel/handlers"
	"github.com/painelbi/painel/internal/config"
	"github.com/painelbi/painel/services"
)

func NewGinRouter(pg *sql.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	tokenService := auth.NewTokenService(config.App.JWTSecret)
	authService := auth.NewAuthService(pg, tokenService)
	auditService := services.NewAuditService(rdb, config.App.AuditQueue)
	userService := services.NewUserService(pg)
	profileService := services.NewProfileService(pg)
	dashboardService := services.NewDashboardService(pg)
	companyService := services.NewCompanyService(pg)

	// Initialize authz components
	resolver := authz.NewSimpleResolver(pg)
	authMiddleware := authz.NewAuthMiddleware(tokenService, resolver, auditService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	profileHandler := handlers.NewProfileHandler(profileService, auditService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, auditService)
	companyHandler := handlers.NewCompanyHandler(companyService, auditService)
	permissionHandler := handlers.NewPermissionHandler(auditService)

	// PUBLIC ENDPOINTS (no authentication required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/api/auth/login", authHandler.Login)

	// PROTECTED ENDPOINTS
	protected := r.Group("/api")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/permissions", permissionHandler.ListPermissions)

		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("", userHandler.ListUsers)
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("/:id", userHandler.GetUser)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		profileRoutes := protected.Group("/profiles")
		{
			profileRoutes.GET("", profileHandler.ListProfiles)
			profileRoutes.POST("", profileHandler.CreateProfile)
			profileRoutes.GET("/:id", profileHandler.GetProfile)
			profileRoutes.PUT("/:id", profileHandler.UpdateProfile)
			profileRoutes.DELETE("/:id", profileHandler.DeleteProfile)
			profileRoutes.POST("/:id/share", profileHandler.ShareProfile)
		}

		dashboardRoutes := protected.Group("/dashboards")
		{
			dashboardRoutes.GET("", dashboardHandler.ListDashboards)
			dashboardRoutes.GET("/first", dashboardHandler.GetFirstDashboard)
			dashboardRoutes.POST("", dashboardHandler.CreateDashboard)
			dashboardRoutes.GET("/:id", dashboardHandler.GetDashboard)
			dashboardRoutes.PUT("/:id", dashboardHandler.UpdateDashboard)
			dashboardRoutes.DELETE("/:id", dashboardHandler.DeleteDashboard)
		}

		companyRoutes := protected.Group("/companies")
		{
			companyRoutes.GET("", companyHandler.ListCompanies)
			companyRoutes.POST("", companyHandler.CreateCompany)
			companyRoutes.GET("/:id", companyHandler.GetCompany)
			companyRoutes.PUT("/:id", companyHandler.UpdateCompany)
			companyRoutes.DELETE("/:id", companyHandler.DeleteCompany)
		}
	}

	return r
}
