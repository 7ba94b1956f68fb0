package router

import (
	"time"

	"github.com/clamor-dev/clamor/internal/handlers"
	"github.com/clamor-dev/clamor/internal/middleware"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Api-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		// One-click unsubscribe from notification emails; the key is
		// the only credential.
		api.POST("/unsubscribe/:key", handlers.Unsubscribe)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		// Operator dashboard API.
		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.POST("/:project_id/archive", handlers.ArchiveProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)

			projects.GET("/:project_id/dashboard", handlers.GetDashboard)

			projects.POST("/:project_id/members", handlers.AddMember)
			projects.GET("/:project_id/members", handlers.ListMembers)
			projects.DELETE("/:project_id/members/:user_id", handlers.RemoveMember)

			projects.GET("/:project_id/feedback", handlers.ListProjectFeedback)
			projects.PATCH("/:project_id/feedback/:feedback_id", handlers.UpdateFeedback)
			projects.DELETE("/:project_id/feedback/:feedback_id", handlers.DeleteFeedback)
			projects.POST("/:project_id/feedback/merge", handlers.MergeFeedback)
			projects.POST("/:project_id/feedback/:feedback_id/comments", handlers.CreateAdminComment)
		}

		// End-user widget API, authenticated by tenant API key.
		widget := api.Group("/widget", middleware.APIKeyMiddleware())
		{
			widget.POST("/feedback", handlers.SubmitFeedback)
			widget.GET("/feedback", handlers.ListWidgetFeedback)
			widget.POST("/feedback/:feedback_id/vote", handlers.CastVote)
			widget.DELETE("/feedback/:feedback_id/vote", handlers.RemoveVote)
			widget.POST("/feedback/:feedback_id/comments", handlers.CreateWidgetComment)
			widget.GET("/feedback/:feedback_id/comments", handlers.ListWidgetComments)
		}
	}

	return r
}
