package server

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"luminoso-backend/internal/config"
	"luminoso-backend/internal/handlers"
	"luminoso-backend/internal/logger"
	"luminoso-backend/internal/metrics"
	"luminoso-backend/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Gallery   *handlers.GalleryHandler
	Orders    *handlers.OrdersHandler
	Push      *handlers.PushHandler
	Events    *handlers.EventsHandler
	Functions *handlers.FunctionsHandler
}

// NewRouter builds the HTTP surface: the public site API, the admin API
// behind a session token, and the notification functions behind the
// functions secret.
func NewRouter(cfg *config.Config, h Handlers, orderLimiter *middleware.RateLimiter, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	// Nil trusts no proxy, so ClientIP is the socket peer.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.WithError(err).Warn("Ignoring TRUSTED_PROXIES")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	// Before any route middleware, so preflights for every path get an answer.
	router.Use(middleware.NewCORS(cfg.CORSAllowedOrigins).Handler())
	router.Use(metrics.Middleware())
	router.Use(logger.GinLogger(log))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		api.GET("/services", handlers.Services)
		api.GET("/gallery", h.Gallery.ListPublic)

		orders := api.Group("/orders")
		if orderLimiter != nil {
			orders.Use(orderLimiter.Handler())
		}
		orders.POST("", h.Orders.CreateOrder)
	}

	admin := api.Group("/admin")
	admin.POST("/login", h.Auth.Login)
	admin.GET("/events", middleware.TokenFromQuery(), middleware.AuthMiddleware(cfg), h.Events.Stream)

	admin.Use(middleware.AuthMiddleware(cfg))
	{
		admin.POST("/logout", h.Auth.Logout)

		admin.GET("/gallery", h.Gallery.ListAdmin)
		admin.POST("/gallery", h.Gallery.Upload)
		admin.DELETE("/gallery/:id", h.Gallery.Delete)

		admin.GET("/orders", h.Orders.ListOrders)
		admin.GET("/orders/:id", h.Orders.GetOrder)
		admin.POST("/orders/:id/advance", h.Orders.AdvanceOrder)
		admin.PATCH("/orders/:id/status", h.Orders.UpdateOrderStatus)
		admin.DELETE("/orders/:id", h.Orders.DeleteOrder)
		admin.GET("/orders/:id/files/:index", h.Orders.DownloadFile)

		admin.POST("/push/register", h.Push.Register)
		admin.POST("/push/unregister", h.Push.Unregister)
		admin.GET("/push/status", h.Push.Status)
	}

	// Any, so that other methods reach FunctionsAuth and get a 405.
	functions := router.Group("/functions/v1", middleware.FunctionsAuth(cfg))
	{
		functions.Any("/send-order-email", h.Functions.SendOrderEmail)
		functions.Any("/send-push-notification", h.Functions.SendPushNotification)
	}

	return router
}
