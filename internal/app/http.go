package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http"
	httpH "github.com/yungbote/queueflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/queueflow-backend/internal/http/middleware"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Branch      *httpH.BranchHandler
	Setting     *httpH.SettingHandler
	Role        *httpH.RoleHandler
	Queue       *httpH.QueueHandler
	Department  *httpH.DepartmentHandler
	Counter     *httpH.CounterHandler
	Ticket      *httpH.TicketHandler
	Board       *httpH.BoardHandler
	Ad          *httpH.AdHandler
	Event       *httpH.EventHandler
	ActivityLog *httpH.ActivityLogHandler
	Dashboard   *httpH.DashboardHandler
}

func wireHandlers(log *logger.Logger, sqlDB *sql.DB, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(sqlDB),
		Auth:        httpH.NewAuthHandler(services.Auth),
		User:        httpH.NewUserHandler(services.User, services.Authz),
		Branch:      httpH.NewBranchHandler(services.Branch),
		Setting:     httpH.NewSettingHandler(services.Setting),
		Role:        httpH.NewRoleHandler(services.Role),
		Queue:       httpH.NewQueueHandler(services.Queue),
		Department:  httpH.NewDepartmentHandler(services.Department),
		Counter:     httpH.NewCounterHandler(services.Counter, services.Ticket),
		Ticket:      httpH.NewTicketHandler(services.Ticket),
		Board:       httpH.NewBoardHandler(log, hub, services.Board),
		Ad:          httpH.NewAdHandler(services.Ad),
		Event:       httpH.NewEventHandler(services.Event),
		ActivityLog: httpH.NewActivityLogHandler(services.ActivityLog),
		Dashboard:   httpH.NewDashboardHandler(services.Dashboard),
	}
}

func wireRouter(log *logger.Logger, cfg Config, services Services, handlers Handlers) *gin.Engine {
	log.Info("Wiring router...")
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    "queueflow-api",
		CORSOrigins:    cfg.CORSOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		TracingEnabled: cfg.Tracing.Enabled,

		AuthMiddleware: httpMW.NewAuthMiddleware(log, services.Auth),
		Permissions:    services.Authz,

		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		BranchHandler:      handlers.Branch,
		SettingHandler:     handlers.Setting,
		RoleHandler:        handlers.Role,
		QueueHandler:       handlers.Queue,
		DepartmentHandler:  handlers.Department,
		CounterHandler:     handlers.Counter,
		TicketHandler:      handlers.Ticket,
		BoardHandler:       handlers.Board,
		AdHandler:          handlers.Ad,
		EventHandler:       handlers.Event,
		ActivityLogHandler: handlers.ActivityLog,
		DashboardHandler:   handlers.Dashboard,
		HealthHandler:      handlers.Health,
	})
}
