package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos/audit"
	"github.com/yungbote/queueflow-backend/internal/data/repos/content"
	"github.com/yungbote/queueflow-backend/internal/data/repos/identity"
	"github.com/yungbote/queueflow-backend/internal/data/repos/queueing"
	"github.com/yungbote/queueflow-backend/internal/data/repos/tenant"
	"github.com/yungbote/queueflow-backend/internal/data/repos/tickets"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type BranchRepo = tenant.BranchRepo
type SettingRepo = tenant.SettingRepo

type UserRepo = identity.UserRepo
type RoleRepo = identity.RoleRepo
type UserTokenRepo = identity.UserTokenRepo

type QueueRepo = queueing.QueueRepo
type DepartmentRepo = queueing.DepartmentRepo
type CounterRepo = queueing.CounterRepo
type AssignmentRepo = queueing.AssignmentRepo
type SequenceRepo = queueing.SequenceRepo

type TicketRepo = tickets.TicketRepo
type TicketFilter = tickets.Filter
type TicketLine = tickets.Line
type TicketStatusStats = tickets.StatusStats

var ErrStaleVersion = tickets.ErrStaleVersion

type AdRepo = content.AdRepo
type EventRepo = content.EventRepo

type ActivityLogRepo = audit.ActivityLogRepo
type ActivityLogFilter = audit.Filter

func NewBranchRepo(db *gorm.DB, baseLog *logger.Logger) BranchRepo {
	return tenant.NewBranchRepo(db, baseLog)
}
func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	return tenant.NewSettingRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return identity.NewUserRepo(db, baseLog) }
func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo { return identity.NewRoleRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return identity.NewUserTokenRepo(db, baseLog)
}

func NewQueueRepo(db *gorm.DB, baseLog *logger.Logger) QueueRepo {
	return queueing.NewQueueRepo(db, baseLog)
}
func NewDepartmentRepo(db *gorm.DB, baseLog *logger.Logger) DepartmentRepo {
	return queueing.NewDepartmentRepo(db, baseLog)
}
func NewCounterRepo(db *gorm.DB, baseLog *logger.Logger) CounterRepo {
	return queueing.NewCounterRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return queueing.NewAssignmentRepo(db, baseLog)
}
func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	return queueing.NewSequenceRepo(db, baseLog)
}

func NewTicketRepo(db *gorm.DB, baseLog *logger.Logger) TicketRepo {
	return tickets.NewTicketRepo(db, baseLog)
}

func NewAdRepo(db *gorm.DB, baseLog *logger.Logger) AdRepo       { return content.NewAdRepo(db, baseLog) }
func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo { return content.NewEventRepo(db, baseLog) }

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return audit.NewActivityLogRepo(db, baseLog)
}
