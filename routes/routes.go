package routes

import (
	"construction-tracking-api/controllers"
	"construction-tracking-api/middleware"

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

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Construction Tracking API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Projects
			protected.GET("/projects", controllers.ListProjects)
			protected.GET("/projects/:id", controllers.GetProject)

			// BOQ activities
			protected.GET("/boq-activities", controllers.ListBOQActivities)
			protected.GET("/boq-activities/:id", controllers.GetBOQActivity)
			protected.POST("/boq-activities/:id/recompute", controllers.RecomputeBOQActivity)

			// KPI records
			protected.POST("/kpi-records", controllers.CreateKPIRecord)
			protected.GET("/kpi-records", controllers.ListKPIRecords)
			protected.GET("/kpi-records/pending", controllers.ListPendingKPIRecords)
			protected.GET("/kpi-records/rejected", controllers.ListRejectedKPIRecords)
			protected.GET("/kpi-records/:id", controllers.GetKPIRecord)
			protected.PUT("/kpi-records/:id", controllers.UpdateKPIRecord)
			protected.DELETE("/kpi-records/:id", controllers.DeleteKPIRecord)

			// Approval workflow
			protected.POST("/kpi-records/:id/approve", controllers.ApproveKPIRecord)
			protected.POST("/kpi-records/:id/reject", controllers.RejectKPIRecord)
			protected.POST("/kpi-records/:id/restore", controllers.RestoreKPIRecord)
			protected.POST("/kpi-records/:id/approve-rejected", controllers.ApproveRejectedKPIRecord)

			// Bulk operations
			protected.POST("/kpi-records/bulk-approve", controllers.BulkApproveKPIRecords)
			protected.POST("/kpi-records/bulk-reject", controllers.BulkRejectKPIRecords)

			// Dashboard
			protected.GET("/dashboard/summary", controllers.GetDashboardSummary)
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
