package routes

import (
	"kyc-tracking-api/controllers"
	"kyc-tracking-api/middleware"
	"kyc-tracking-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "KYC Tracking API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Pipeline status lookup (all authenticated users)
			protected.GET("/statuses", controllers.GetSubmissionStatuses)

			// KYC submissions
			submissions := protected.Group("/submissions")
			{
				// Derived reads: timelines and fleet statistics
				submissions.GET("/:id/timeline", controllers.GetTimeline)
				submissions.GET("/timelines", controllers.GetTimelines)
				submissions.GET("/stats", controllers.GetStats)

				// Marketers open submissions and file intake forms
				submissions.POST("", middleware.RequireRole(models.RoleMarketer), controllers.CreateSubmission)
				submissions.POST("/:id/forms/:form", middleware.RequireRole(models.RoleMarketer), controllers.SubmitForm)

				// Admin actions
				submissions.POST("/:id/admin/verification", middleware.RequireRole(models.RoleAdmin), controllers.UploadAdminVerification)
				submissions.POST("/:id/admin/send-up", middleware.RequireRole(models.RoleAdmin), controllers.SendToSuperAdmin)
				submissions.POST("/:id/admin/reset", middleware.RequireRole(models.RoleAdmin), controllers.ResetSubmission)

				// SuperAdmin review
				submissions.POST("/:id/superadmin/review", middleware.RequireRole(models.RoleSuperAdmin), controllers.SuperAdminReview)

				// MasterAdmin final decision
				submissions.POST("/:id/masteradmin/decision", middleware.RequireRole(models.RoleMasterAdmin), controllers.MasterAdminDecide)

				// Activity-log append used by the external logging collaborator
				submissions.POST("/:id/log", controllers.AppendActivityLog)
			}
		}
	}
}
