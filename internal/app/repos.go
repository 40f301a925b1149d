package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type Repos struct {
	Branch      repos.BranchRepo
	Setting     repos.SettingRepo
	User        repos.UserRepo
	Role        repos.RoleRepo
	UserToken   repos.UserTokenRepo
	Queue       repos.QueueRepo
	Department  repos.DepartmentRepo
	Counter     repos.CounterRepo
	Assignment  repos.AssignmentRepo
	Sequence    repos.SequenceRepo
	Ticket      repos.TicketRepo
	Ad          repos.AdRepo
	Event       repos.EventRepo
	ActivityLog repos.ActivityLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Branch:      repos.NewBranchRepo(db, log),
		Setting:     repos.NewSettingRepo(db, log),
		User:        repos.NewUserRepo(db, log),
		Role:        repos.NewRoleRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Queue:       repos.NewQueueRepo(db, log),
		Department:  repos.NewDepartmentRepo(db, log),
		Counter:     repos.NewCounterRepo(db, log),
		Assignment:  repos.NewAssignmentRepo(db, log),
		Sequence:    repos.NewSequenceRepo(db, log),
		Ticket:      repos.NewTicketRepo(db, log),
		Ad:          repos.NewAdRepo(db, log),
		Event:       repos.NewEventRepo(db, log),
		ActivityLog: repos.NewActivityLogRepo(db, log),
	}
}
