package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

const testDay = "2026-03-02"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// harness wires real repos on an isolated database. Services under test open
// their own transactions, so fixtures are seeded on the root handle.
type harness struct {
	ctx context.Context
	db  *gorm.DB
	log *logger.Logger
	rec *bus.Recorder

	branches    repos.BranchRepo
	settings    repos.SettingRepo
	users       repos.UserRepo
	roles       repos.RoleRepo
	tokens      repos.UserTokenRepo
	queues      repos.QueueRepo
	departments repos.DepartmentRepo
	counters    repos.CounterRepo
	assignments repos.AssignmentRepo
	sequences   repos.SequenceRepo
	tickets     repos.TicketRepo
	ads         repos.AdRepo
	events      repos.EventRepo
	logs        repos.ActivityLogRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &harness{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		rec:         &bus.Recorder{},
		branches:    repos.NewBranchRepo(db, log),
		settings:    repos.NewSettingRepo(db, log),
		users:       repos.NewUserRepo(db, log),
		roles:       repos.NewRoleRepo(db, log),
		tokens:      repos.NewUserTokenRepo(db, log),
		queues:      repos.NewQueueRepo(db, log),
		departments: repos.NewDepartmentRepo(db, log),
		counters:    repos.NewCounterRepo(db, log),
		assignments: repos.NewAssignmentRepo(db, log),
		sequences:   repos.NewSequenceRepo(db, log),
		tickets:     repos.NewTicketRepo(db, log),
		ads:         repos.NewAdRepo(db, log),
		events:      repos.NewEventRepo(db, log),
		logs:        repos.NewActivityLogRepo(db, log),
	}
}

// as returns a request context authenticated as u.
func (h *harness) as(u *types.User) context.Context {
	rd := &ctxutil.RequestData{UserID: u.ID, SessionID: uuid.New()}
	if u.BranchID != nil {
		rd.BranchID = *u.BranchID
	}
	if u.RoleID != nil {
		rd.RoleID = *u.RoleID
	}
	rd.SuperAdmin = u.SuperAdmin
	return ctxutil.WithRequestData(h.ctx, rd)
}

// ticketService builds a TicketService whose clock reads *now.
func (h *harness) ticketService(now *time.Time) *ticketService {
	svc := NewTicketService(
		h.db, h.log,
		h.branches, h.settings, h.queues, h.departments, h.counters,
		h.assignments, h.sequences, h.tickets, h.logs, h.rec,
	).(*ticketService)
	svc.now = func() time.Time { return *now }
	return svc
}

func (h *harness) counterService(now *time.Time) *counterService {
	svc := NewCounterService(
		h.db, h.log,
		h.branches, h.settings, h.counters, h.queues, h.departments,
		h.assignments, h.users, h.logs, h.rec,
	).(*counterService)
	svc.now = func() time.Time { return *now }
	return svc
}

func wantCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error %d/%s, got %v", status, code, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("expected %d/%s, got %d/%s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}

func countEvents(rec *bus.Recorder, name string) int {
	n := 0
	for _, e := range rec.Events() {
		if string(e) == name {
			n++
		}
	}
	return n
}

func (h *harness) queueService() QueueService {
	return NewQueueService(h.db, h.log, h.branches, h.settings, h.queues, h.counters, h.logs)
}

func (h *harness) departmentService() DepartmentService {
	return NewDepartmentService(h.db, h.log, h.branches, h.settings, h.departments, h.counters, h.logs)
}
