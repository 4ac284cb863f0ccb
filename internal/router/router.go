// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/cache"
	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/handlers"
	"github.com/bizcore/bizcore-backend/internal/middleware"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

// Initialize wires the service graph and registers every route.
// The returned ComplianceService is shared with the background sweeper in main.
func Initialize(db *gorm.DB, cfg *config.Config, drafts *cache.DraftCache) (*gin.Engine, *services.ComplianceService) {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	tokenService := services.NewTokenService(db, cfg)

	authService := services.NewAuthService(db, cfg, tokenService, notificationService)
	paymentService := services.NewPaymentService(db, cfg, tokenService)
	complianceService := services.NewComplianceService(db, cfg, notificationService)
	applicationService := services.NewApplicationService(db, cfg, drafts, paymentService, notificationService, complianceService)
	planningService := services.NewPlanningService(db, cfg, tokenService)
	userService := services.NewUserService(db, storageService)
	adminService := services.NewAdminService(db, notificationService, paymentService, tokenService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, storageService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	complianceHandler := handlers.NewComplianceHandler(complianceService, storageService)
	planningHandler := handlers.NewPlanningHandler(planningService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", middleware.OptionalAuth(), userHandler.GetPublicProfile)

			// Authenticated user routes
			protected := users.Group("/me")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("", userHandler.UpdateProfile)
				protected.POST("/avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
				protected.DELETE("", userHandler.DeleteAccount)
			}
		}

		// Application routes
		applications := v1.Group("/applications")
		{
			applications.GET("/entity-types", applicationHandler.GetEntityTypes)
			applications.GET("/stages/:stage", applicationHandler.GetStageDefinition)

			// Authenticated routes
			protected := applications.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", applicationHandler.CreateApplication)
				protected.GET("", applicationHandler.ListApplications)
				protected.GET("/:id", applicationHandler.GetApplication)
				protected.PUT("/:id/stages/:stage", applicationHandler.SaveStage)
				protected.POST("/:id/advance", applicationHandler.Advance)
				protected.POST("/:id/retreat", applicationHandler.Retreat)
				protected.POST("/:id/jump/:stage", applicationHandler.JumpTo)
				protected.POST("/:id/attachments/:name", middleware.UploadRateLimit(), applicationHandler.UploadAttachment)
				protected.POST("/:id/submit", middleware.FinalizeRateLimit(), applicationHandler.Finalize)
				protected.DELETE("/:id", applicationHandler.Abandon)
			}
		}

		// Public submission tracking
		v1.GET("/track/:ref", applicationHandler.Track)

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/topup", paymentHandler.CreateTopup)
			payments.POST("/topup/confirm", paymentHandler.ConfirmTopup)
			payments.GET("/history", paymentHandler.GetHistory)
		}

		// Token wallet routes
		tokens := v1.Group("/tokens")
		tokens.Use(middleware.AuthRequired())
		{
			tokens.GET("/balance", tokenHandler.GetBalance)
			tokens.GET("/ledger", tokenHandler.GetLedger)
		}

		// Compliance routes
		compliance := v1.Group("/compliance")
		{
			compliance.GET("/forms", complianceHandler.ListForms)

			protected := compliance.Group("/filings")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("", complianceHandler.GetFilings)
				protected.POST("/:id/file", complianceHandler.MarkFiled)
				protected.POST("/:id/evidence", middleware.UploadRateLimit(), complianceHandler.UploadEvidence)
			}
		}

		// Business plan routes
		plans := v1.Group("/plans")
		plans.Use(middleware.AuthRequired())
		{
			plans.POST("", middleware.AIRateLimit(), planningHandler.GeneratePlan)
			plans.GET("", planningHandler.ListPlans)
			plans.GET("/:id", planningHandler.GetPlan)
			plans.DELETE("/:id", planningHandler.DeletePlan)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminApplications := admin.Group("/applications")
			{
				adminApplications.GET("", adminHandler.GetApplications)
			}

			adminTransactions := admin.Group("/transactions")
			{
				adminTransactions.GET("", adminHandler.GetTransactions)
				adminTransactions.POST("/:id/refund", adminHandler.ProcessRefund)
			}

			admin.POST("/tokens/grant", adminHandler.GrantTokens)
			admin.POST("/broadcast", adminHandler.BroadcastEmail)

			adminSettings := admin.Group("/settings")
			{
				adminSettings.GET("", adminHandler.GetSettings)
				adminSettings.PUT("", adminHandler.UpdateSetting)
			}

			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r, complianceService
}
