package router

import (
	"github.com/boundless/grants-service/internal/cache"
	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/handler"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/boundless/grants-service/internal/metrics"
	"github.com/boundless/grants-service/internal/middleware"
	"github.com/boundless/grants-service/internal/notification"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(
	db *gorm.DB,
	cfg *config.Config,
	c *cache.Cache,
	notifier *notification.Notifier,
	validationLogic *logic.ValidationLogic,
	milestoneLogic *logic.MilestoneLogic,
) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(metrics.Middleware())

	// 健康检查与监控
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "grants-service",
		})
	})
	r.GET("/metrics", metrics.Handler())

	// 上传文件静态访问
	r.Static("/uploads", cfg.Upload.Dir)

	projectHandler := handler.NewProjectHandler(db, validationLogic, notifier)
	commentHandler := handler.NewCommentHandler(db)
	milestoneHandler := handler.NewMilestoneHandler(milestoneLogic)
	dashboardHandler := handler.NewDashboardHandler(db, c)
	userHandler := handler.NewUserHandler(db)
	uploadHandler := handler.NewUploadHandler(cfg.Upload)
	notificationHandler := handler.NewNotificationHandler(notifier)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 公开路由
		v1.GET("/projects", projectHandler.GetProjects)
		v1.GET("/projects/:id", projectHandler.GetProject)
		v1.GET("/projects/:id/comments", commentHandler.GetComments)
		v1.GET("/projects/:id/milestones", milestoneHandler.GetProjectMilestones)
		v1.GET("/milestones/:id/attachments", milestoneHandler.GetAttachments)
		v1.GET("/users/search", userHandler.SearchUsers)
		v1.GET("/dashboard/overview", dashboardHandler.GetOverview)

		// 需要登录的路由
		authed := v1.Group("", middleware.Auth(cfg.Auth.JWTSecret))
		{
			authed.POST("/projects", projectHandler.CreateProject)
			authed.PUT("/projects/:id", projectHandler.UpdateProject)
			authed.POST("/projects/:id/vote", projectHandler.ToggleVote)
			authed.POST("/projects/:id/launch", projectHandler.LaunchCampaign)
			authed.POST("/projects/:id/contribute", projectHandler.Contribute)

			authed.POST("/projects/:id/comments", commentHandler.AddComment)
			authed.PUT("/projects/comments/:comment_id", commentHandler.UpdateComment)
			authed.DELETE("/projects/comments/:comment_id", commentHandler.DeleteComment)
			authed.POST("/projects/comments/:comment_id/react", commentHandler.ReactToComment)

			authed.POST("/milestones/:id/resubmit", milestoneHandler.Resubmit)
			authed.PATCH("/milestones/:id/progress", milestoneHandler.UpdateProgress)

			authed.POST("/uploads/image", uploadHandler.UploadImage)
			authed.GET("/notifications", notificationHandler.ListNotifications)
		}

		// 管理端路由
		admin := v1.Group("/admin", middleware.Auth(cfg.Auth.JWTSecret), middleware.RequireAdmin())
		{
			admin.POST("/milestones", milestoneHandler.CreateMilestone)
			admin.PATCH("/milestones/:id/status", milestoneHandler.UpdateStatus)
			admin.POST("/projects/:id/reject", projectHandler.RejectIdea)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
