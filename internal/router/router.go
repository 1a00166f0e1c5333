package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/middleware"
	"github.com/seatmate-io/seatmate/internal/modules/handler"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
)

type RouterDeps struct {
	Config              *config.Config
	DB                  *gorm.DB
	Log                 *zap.Logger
	AuthHandler         *handler.AuthHandler
	ListingHandler      *handler.ListingHandler
	ConversationHandler *handler.ConversationHandler
	ApplicationHandler  *handler.ApplicationHandler
	ReviewHandler       *handler.ReviewHandler
	NotificationHandler *handler.NotificationHandler
	ProfileHandler      *handler.ProfileHandler
	AdminHandler        *handler.AdminHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		// Add trace ID to response header
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	{
		// public surface
		v1.POST("/auth/register", d.AuthHandler.Register)
		v1.POST("/auth/login", d.AuthHandler.Login)
		v1.GET("/listings", d.ListingHandler.List)
		v1.GET("/listings/:id", d.ListingHandler.Get)
		v1.GET("/reviews", d.ReviewHandler.List)
		v1.GET("/users/:id", d.ProfileHandler.Get)

		// sweep trigger, gated by the cron secret rather than a session
		v1.POST("/reviews/auto-complete", middleware.CronAuth(d.Config), d.ReviewHandler.AutoComplete)

		authed := v1.Group("")
		authed.Use(middleware.SessionAuth(d.Config, d.DB))
		{
			authed.POST("/auth/logout", d.AuthHandler.Logout)
			authed.GET("/me", d.AuthHandler.Me)
			authed.PATCH("/me/verification", d.AuthHandler.UpdateVerification)
			authed.GET("/profile/completed", d.ProfileHandler.Completed)

			listings := authed.Group("/listings")
			{
				listings.POST("", d.ListingHandler.Create)
				listings.PATCH("/:id", d.ListingHandler.Update)
				listings.POST("/:id/close", d.ListingHandler.Close)
				listings.DELETE("/:id", d.ListingHandler.Delete)
				listings.POST("/:id/select", d.ListingHandler.Select)
			}

			authed.POST("/inquiries", d.ConversationHandler.Inquire)

			conversations := authed.Group("/conversations")
			{
				conversations.GET("", d.ConversationHandler.List)
				conversations.GET("/:id", d.ConversationHandler.Get)
				conversations.POST("/:id/apply", d.ConversationHandler.Apply)
				conversations.POST("/:id/accept", d.ConversationHandler.Accept)
				conversations.POST("/:id/confirm", d.ConversationHandler.Confirm)
				conversations.GET("/:id/confirm", d.ConversationHandler.ConfirmStatus)
			}

			applications := authed.Group("/applications")
			{
				applications.GET("", d.ApplicationHandler.List)
				applications.PATCH("/:id", d.ApplicationHandler.Update)
				applications.DELETE("/:id", d.ApplicationHandler.Delete)
			}

			authed.POST("/reviews", d.ReviewHandler.Create)
			authed.GET("/reviews/pending", d.ReviewHandler.Pending)

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", d.NotificationHandler.List)
				notifications.POST("/:id/read", d.NotificationHandler.MarkRead)
			}

			authed.POST("/reports", d.AdminHandler.CreateReport)

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireAdmin(model.RoleSubAdmin))
			{
				admin.GET("/users", d.AdminHandler.ListUsers)
				admin.POST("/users/:id/suspend", d.AdminHandler.SuspendUser)
				admin.PATCH("/users/:id/verification", d.AdminHandler.SetVerification)
				admin.GET("/reports", d.AdminHandler.ListReports)
				admin.POST("/reports/:id/resolve", d.AdminHandler.ResolveReport)
				admin.GET("/blacklist", d.AdminHandler.BlacklistList)
				admin.POST("/blacklist", d.AdminHandler.BlacklistAdd)
				admin.DELETE("/blacklist/:id", d.AdminHandler.BlacklistRemove)
				admin.GET("/logs", d.AdminHandler.ListLogs)
			}
		}
	}

	return r
}
