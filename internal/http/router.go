package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	httpH "github.com/yungbote/queueflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/queueflow-backend/internal/http/middleware"
	"github.com/yungbote/queueflow-backend/internal/observability"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	MetricsEnabled bool
	TracingEnabled bool

	AuthMiddleware *httpMW.AuthMiddleware
	Permissions    httpMW.PermissionChecker

	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	BranchHandler      *httpH.BranchHandler
	SettingHandler     *httpH.SettingHandler
	RoleHandler        *httpH.RoleHandler
	QueueHandler       *httpH.QueueHandler
	DepartmentHandler  *httpH.DepartmentHandler
	CounterHandler     *httpH.CounterHandler
	TicketHandler      *httpH.TicketHandler
	BoardHandler       *httpH.BoardHandler
	AdHandler          *httpH.AdHandler
	EventHandler       *httpH.EventHandler
	ActivityLogHandler *httpH.ActivityLogHandler
	DashboardHandler   *httpH.DashboardHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.Correlate())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.MetricsEnabled))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthHandler != nil {
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	can := func(resource, action string) gin.HandlerFunc {
		return httpMW.RequirePermission(cfg.Permissions, resource, action)
	}
	read := func(resource string) gin.HandlerFunc { return can(resource, identity.ActionRead) }
	write := func(resource string) gin.HandlerFunc { return can(resource, identity.ActionWrite) }

	if cfg.AuthHandler != nil {
		protected.POST("/logout", cfg.AuthHandler.Logout)
	}

	if h := cfg.UserHandler; h != nil {
		protected.GET("/me", h.GetMe)
		protected.PUT("/me/password", h.ChangePassword)
		protected.GET("/users", read(identity.ResourceUsers), h.List)
		protected.GET("/users/:id", read(identity.ResourceUsers), h.Get)
		protected.POST("/users", write(identity.ResourceUsers), h.Create)
		protected.PATCH("/users/:id", write(identity.ResourceUsers), h.Update)
		protected.DELETE("/users/:id", write(identity.ResourceUsers), h.Delete)
	}

	if h := cfg.BranchHandler; h != nil {
		branches := protected.Group("/branches", httpMW.RequireSuperAdmin())
		branches.GET("", h.List)
		branches.GET("/:id", h.Get)
		branches.POST("", h.Create)
		branches.PATCH("/:id", h.Update)
		branches.DELETE("/:id", h.Delete)
	}

	if h := cfg.SettingHandler; h != nil {
		protected.GET("/settings", read(identity.ResourceSettings), h.Get)
		protected.PATCH("/settings", write(identity.ResourceSettings), h.Update)
		protected.POST("/settings/logo", write(identity.ResourceSettings), h.UploadLogo)
		protected.POST("/settings/logo/regenerate", write(identity.ResourceSettings), h.RegenerateLogo)
	}

	if h := cfg.RoleHandler; h != nil {
		protected.GET("/roles", read(identity.ResourceRoles), h.List)
		protected.GET("/roles/:id", read(identity.ResourceRoles), h.Get)
		protected.POST("/roles", write(identity.ResourceRoles), h.Create)
		protected.PUT("/roles/:id", write(identity.ResourceRoles), h.Update)
		protected.DELETE("/roles/:id", write(identity.ResourceRoles), h.Delete)
	}

	if h := cfg.QueueHandler; h != nil {
		protected.GET("/queues", read(identity.ResourceQueues), h.List)
		protected.GET("/queues/:id", read(identity.ResourceQueues), h.Get)
		protected.POST("/queues", write(identity.ResourceQueues), h.Create)
		protected.PATCH("/queues/:id", write(identity.ResourceQueues), h.Update)
		protected.DELETE("/queues/:id", write(identity.ResourceQueues), h.Delete)
	}

	if h := cfg.DepartmentHandler; h != nil {
		protected.GET("/departments", read(identity.ResourceDepartments), h.List)
		protected.GET("/departments/:id", read(identity.ResourceDepartments), h.Get)
		protected.POST("/departments", write(identity.ResourceDepartments), h.Create)
		protected.PATCH("/departments/:id", write(identity.ResourceDepartments), h.Update)
		protected.DELETE("/departments/:id", write(identity.ResourceDepartments), h.Delete)
	}

	if h := cfg.CounterHandler; h != nil {
		protected.GET("/counters/mine", h.Mine)
		protected.GET("/counters/assignments", read(identity.ResourceCounters), h.Assignments)
		protected.GET("/counters", read(identity.ResourceCounters), h.List)
		protected.GET("/counters/:id", read(identity.ResourceCounters), h.Get)
		protected.POST("/counters", write(identity.ResourceCounters), h.Create)
		protected.PATCH("/counters/:id", write(identity.ResourceCounters), h.Update)
		protected.DELETE("/counters/:id", write(identity.ResourceCounters), h.Delete)
		protected.POST("/counters/:id/assign", write(identity.ResourceCounters), h.Assign)
		protected.DELETE("/counters/:id/assign", write(identity.ResourceCounters), h.Unassign)
		protected.POST("/counters/:id/next", write(identity.ResourceTickets), h.Next)
	}

	if h := cfg.TicketHandler; h != nil {
		protected.POST("/tickets", can(identity.ResourceTickets, identity.ActionIssue), h.Issue)
		protected.GET("/tickets", read(identity.ResourceTickets), h.List)
		protected.GET("/tickets/pending-payments", read(identity.ResourcePayments), h.PendingPayments)
		protected.GET("/tickets/:id", read(identity.ResourceTickets), h.Get)
		protected.PUT("/tickets/:id/status", write(identity.ResourceTickets), h.UpdateStatus)
		protected.POST("/tickets/:id/recall", write(identity.ResourceTickets), h.Recall)
		protected.POST("/tickets/:id/transfer", write(identity.ResourceTickets), h.Transfer)
		protected.POST("/tickets/:id/next-step", write(identity.ResourceTickets), h.NextStep)
		protected.POST("/tickets/:id/clear", write(identity.ResourceTickets), h.Clear)
		protected.POST("/tickets/:id/clear-payment", write(identity.ResourcePayments), h.ClearPayment)
	}

	if h := cfg.BoardHandler; h != nil {
		protected.GET("/board", read(identity.ResourceTickets), h.Snapshot)
		protected.GET("/board/stream", read(identity.ResourceTickets), h.Stream)
	}

	if h := cfg.AdHandler; h != nil {
		protected.GET("/ads", read(identity.ResourceAds), h.List)
		protected.POST("/ads", write(identity.ResourceAds), h.Upload)
		protected.PUT("/ads/order", write(identity.ResourceAds), h.Reorder)
		protected.PATCH("/ads/:id", write(identity.ResourceAds), h.Update)
		protected.DELETE("/ads/:id", write(identity.ResourceAds), h.Delete)
	}

	if h := cfg.EventHandler; h != nil {
		protected.GET("/events", read(identity.ResourceEvents), h.List)
		protected.GET("/events/:id", read(identity.ResourceEvents), h.Get)
		protected.POST("/events", write(identity.ResourceEvents), h.Create)
		protected.PATCH("/events/:id", write(identity.ResourceEvents), h.Update)
		protected.DELETE("/events/:id", write(identity.ResourceEvents), h.Delete)
	}

	if h := cfg.ActivityLogHandler; h != nil {
		protected.GET("/logs", read(identity.ResourceLogs), h.List)
	}
	if h := cfg.DashboardHandler; h != nil {
		protected.GET("/dashboard", read(identity.ResourceDashboard), h.Stats)
	}

	return r
}
