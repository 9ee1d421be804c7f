package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/together-dev/together/internal/handlers"
	"github.com/together-dev/together/internal/middleware"
	"github.com/together-dev/together/internal/models"
	"github.com/together-dev/together/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/notifications", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAssociation), handlers.NotificationFeed)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		missions := api.Group("/missions")
		{
			missions.GET("", handlers.SearchMissions)
			missions.GET("/:mission_id", handlers.GetMission)

			asAssociation := missions.Group("", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAssociation))
			{
				asAssociation.POST("", handlers.CreateMission)
				asAssociation.GET("/:mission_id/engagements", handlers.ListMissionEngagements)
				asAssociation.POST("/:mission_id/engagements/:volunteer_id/approve", handlers.ApproveEngagement)
				asAssociation.POST("/:mission_id/engagements/:volunteer_id/reject", handlers.RejectEngagement)
			}

			asVolunteer := missions.Group("", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleVolunteer))
			{
				asVolunteer.POST("/:mission_id/apply", handlers.ApplyToMission)
				asVolunteer.DELETE("/:mission_id/application", handlers.WithdrawApplication)
			}
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAssociation))
		{
			notifications.GET("", handlers.GetNotifications)
			notifications.GET("/unread-count", handlers.GetUnreadNotificationCount)
			notifications.PATCH("/mark-read", handlers.MarkNotificationsRead)
		}
	}

	return r
}
