package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/config"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers"
	"github.com/ignatzorin/academic-services-backend/internal/http/middleware"
	"github.com/ignatzorin/academic-services-backend/internal/storage"
)

// Handlers собирает все хэндлеры HTTP API.
type Handlers struct {
	Requests      *handlers.RequestHandler
	Payments      *handlers.PaymentHandler
	Disputes      *handlers.DisputeHandler
	Deliverables  *handlers.DeliverableHandler
	Uploads       *handlers.UploadHandler
	Catalog       *handlers.CatalogHandler
	Users         *handlers.UserHandler
	Tickets       *handlers.TicketHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
	Seed          *handlers.SeedHandler
	WS            *handlers.WSHandler
	Health        *handlers.HealthHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens middleware.TokenParser,
	callers middleware.CallerResolver,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction()))

	r.GET("/health", h.Health.Health)
	r.StaticFS(storage.PublicPrefix, http.Dir(cfg.StoragePath))

	api := r.Group("/api")

	// Публичный каталог
	api.GET("/services", h.Catalog.ListServices)
	api.GET("/services/:id", middleware.UUIDValidator("id"), h.Catalog.GetService)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens), middleware.CallerMiddleware(callers))

	mutationLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	adminOnly := middleware.RequireAdmin()
	{
		protected.GET("/ws", h.WS.Handle)
		protected.GET("/me", h.Users.Me)

		// Заявки
		protected.POST("/requests", mutationLimit, h.Requests.CreateRequest)
		protected.GET("/requests", h.Requests.ListRequests)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), h.Requests.GetRequest)
		protected.GET("/requests/:id/history", middleware.UUIDValidator("id"), h.Requests.History)
		protected.GET("/requests/:id/deliverables", middleware.UUIDValidator("id"), h.Deliverables.List)

		// Платежи и споры
		protected.POST("/payments", mutationLimit, h.Payments.SubmitPayment)
		protected.GET("/payments", h.Payments.ListPayments)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), h.Payments.GetPayment)
		protected.PUT("/payments/:id", adminOnly, middleware.UUIDValidator("id"), h.Payments.ReviewPayment)
		protected.POST("/payments/:id/dispute", middleware.UUIDValidator("id"), mutationLimit, h.Payments.FileDispute)
		protected.GET("/disputes", h.Disputes.ListDisputes)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Disputes.GetDispute)

		// Результаты работ и файлы
		protected.POST("/deliverables", adminOnly, h.Deliverables.Upload)
		protected.POST("/uploads", mutationLimit, h.Uploads.Upload)

		protected.PUT("/users/:id/suspend", adminOnly, middleware.UUIDValidator("id"), h.Users.Suspend)

		// Обращения в поддержку
		protected.POST("/tickets", mutationLimit, h.Tickets.CreateTicket)
		protected.GET("/tickets", h.Tickets.ListTickets)
		protected.GET("/tickets/:id", middleware.UUIDValidator("id"), h.Tickets.GetTicket)
		protected.POST("/tickets/:id/replies", middleware.UUIDValidator("id"), mutationLimit, h.Tickets.Reply)
		protected.PUT("/tickets/:id/status", adminOnly, middleware.UUIDValidator("id"), h.Tickets.UpdateStatus)

		// Уведомления
		protected.GET("/notifications", h.Notifications.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notifications.CountUnread)
		protected.PUT("/notifications/read-all", h.Notifications.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notifications.MarkAsRead)
	}

	admin := protected.Group("/admin")
	admin.Use(adminOnly)
	{
		admin.GET("/services", h.Catalog.ListAllServices)
		admin.POST("/services", h.Catalog.CreateService)
		admin.PUT("/services/:id", middleware.UUIDValidator("id"), h.Catalog.UpdateService)
		admin.DELETE("/services/:id", middleware.UUIDValidator("id"), h.Catalog.DeleteService)

		admin.GET("/users", h.Users.ListUsers)
		admin.GET("/users/:id", middleware.UUIDValidator("id"), h.Users.GetUser)

		admin.PUT("/requests/:id/status", middleware.UUIDValidator("id"), h.Requests.UpdateStatus)
		admin.PUT("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Disputes.ResolveDispute)

		admin.GET("/reports/revenue", h.Reports.Revenue)

		if h.Seed != nil {
			admin.POST("/seed/services", h.Seed.SeedServices)
		}
	}

	return r
}
