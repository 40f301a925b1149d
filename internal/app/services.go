package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/authz"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type Services struct {
	Authz *authz.Enforcer

	Auth        services.AuthService
	User        services.UserService
	Branch      services.BranchService
	Setting     services.SettingService
	Role        services.RoleService
	Queue       services.QueueService
	Department  services.DepartmentService
	Counter     services.CounterService
	Ticket      services.TicketService
	Board       services.BoardService
	Ad          services.AdService
	Event       services.EventService
	ActivityLog services.ActivityLogService
	Dashboard   services.DashboardService
	Logo        services.LogoService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, events bus.Publisher) (Services, error) {
	log.Info("Wiring services...")

	enforcer, err := authz.NewEnforcer(log, authz.RepoSource(repos.Role))
	if err != nil {
		return Services{}, fmt.Errorf("init authz: %w", err)
	}
	if err := enforcer.Reload(context.Background()); err != nil {
		return Services{}, fmt.Errorf("load authz policies: %w", err)
	}

	var logos services.LogoService
	if clients.Bucket != nil {
		ls, err := services.NewLogoService(log, repos.Setting, clients.Bucket, cfg.LogoFont)
		if err != nil {
			return Services{}, fmt.Errorf("init logo service: %w", err)
		}
		logos = ls
	}

	return Services{
		Authz: enforcer,
		Auth:  services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:  services.NewUserService(db, log, repos.User, repos.Role, repos.UserToken, repos.ActivityLog),
		Branch: services.NewBranchService(db, log,
			repos.Branch, repos.Setting, repos.ActivityLog, logos),
		Setting: services.NewSettingService(db, log,
			repos.Branch, repos.Setting, repos.ActivityLog, logos, events),
		Role: services.NewRoleService(db, log, repos.Role, repos.User, repos.ActivityLog, enforcer),
		Queue: services.NewQueueService(db, log,
			repos.Branch, repos.Setting, repos.Queue, repos.Counter, repos.ActivityLog),
		Department: services.NewDepartmentService(db, log,
			repos.Branch, repos.Setting, repos.Department, repos.Counter, repos.ActivityLog),
		Counter: services.NewCounterService(db, log,
			repos.Branch, repos.Setting, repos.Counter, repos.Queue, repos.Department,
			repos.Assignment, repos.User, repos.ActivityLog, events),
		Ticket: services.NewTicketService(db, log,
			repos.Branch, repos.Setting, repos.Queue, repos.Department, repos.Counter,
			repos.Assignment, repos.Sequence, repos.Ticket, repos.ActivityLog, events),
		Board: services.NewBoardService(log,
			repos.Branch, repos.Setting, repos.Counter, repos.Queue, repos.Department,
			repos.Ticket, repos.Ad, repos.Event),
		Ad:          services.NewAdService(db, log, repos.Ad, repos.ActivityLog, clients.Bucket, events),
		Event:       services.NewEventService(db, log, repos.Event, repos.ActivityLog, events),
		ActivityLog: services.NewActivityLogService(log, repos.ActivityLog),
		Dashboard: services.NewDashboardService(log,
			repos.Branch, repos.Setting, repos.Queue, repos.Department, repos.Ticket),
		Logo: logos,
	}, nil
}
