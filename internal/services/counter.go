package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

type CounterInput struct {
	Name         string     `json:"name"`
	QueueID      *uuid.UUID `json:"queue_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Active       *bool      `json:"active"`
}

type CounterUpdate struct {
	Name         *string    `json:"name"`
	QueueID      *uuid.UUID `json:"queue_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Active       *bool      `json:"active"`
}

type AssignInput struct {
	UserID uuid.UUID `json:"user_id"`
	Day    string    `json:"day"`
}

type CounterService interface {
	List(ctx context.Context) ([]*types.Counter, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Counter, error)
	Create(ctx context.Context, in CounterInput) (*types.Counter, error)
	Update(ctx context.Context, id uuid.UUID, in CounterUpdate) (*types.Counter, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Assign(ctx context.Context, counterID uuid.UUID, in AssignInput) (*types.CounterAssignment, error)
	Unassign(ctx context.Context, counterID uuid.UUID, day string) error
	Assignments(ctx context.Context, day string) ([]*types.CounterAssignment, error)
	// Mine returns the caller's counter for today, or a 404 when unassigned.
	Mine(ctx context.Context) (*types.CounterAssignment, error)
}

type counterService struct {
	db             *gorm.DB
	log            *logger.Logger
	counterRepo    repos.CounterRepo
	queueRepo      repos.QueueRepo
	departmentRepo repos.DepartmentRepo
	assignmentRepo repos.AssignmentRepo
	userRepo       repos.UserRepo
	logRepo        repos.ActivityLogRepo
	clock          branchClock
	events         bus.Publisher
	now            func() time.Time
}

func NewCounterService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	counterRepo repos.CounterRepo,
	queueRepo repos.QueueRepo,
	departmentRepo repos.DepartmentRepo,
	assignmentRepo repos.AssignmentRepo,
	userRepo repos.UserRepo,
	logRepo repos.ActivityLogRepo,
	events bus.Publisher,
) CounterService {
	return &counterService{
		db:             db,
		log:            log.With("service", "CounterService"),
		counterRepo:    counterRepo,
		queueRepo:      queueRepo,
		departmentRepo: departmentRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		logRepo:        logRepo,
		clock:          branchClock{branches: branchRepo, settings: settingRepo},
		events:         events,
		now:            time.Now,
	}
}

func (cs *counterService) List(ctx context.Context) ([]*types.Counter, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return cs.counterRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID)
}

func (cs *counterService) Get(ctx context.Context, id uuid.UUID) (*types.Counter, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return cs.get(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (cs *counterService) get(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Counter, error) {
	c, err := cs.counterRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load counter: %w", err)
	}
	if c == nil {
		return nil, notFound("counter_not_found", "counter", id)
	}
	return c, nil
}

// checkLine enforces that a counter serves exactly one line of the branch's kind.
func (cs *counterService) checkLine(dbc dbctx.Context, b *types.Branch, queueID, departmentID *uuid.UUID) error {
	switch b.Kind {
	case types.KindBank:
		if queueID == nil || departmentID != nil {
			return apierr.BadRequest("invalid_line", errors.New("bank counters need a queue_id and no department_id"))
		}
		q, err := cs.queueRepo.GetByID(dbc, b.ID, *queueID)
		if err != nil {
			return err
		}
		if q == nil {
			return apierr.BadRequest("invalid_line", fmt.Errorf("queue %s not found", *queueID))
		}
	case types.KindHospital:
		if departmentID == nil || queueID != nil {
			return apierr.BadRequest("invalid_line", errors.New("rooms need a department_id and no queue_id"))
		}
		d, err := cs.departmentRepo.GetByID(dbc, b.ID, *departmentID)
		if err != nil {
			return err
		}
		if d == nil {
			return apierr.BadRequest("invalid_line", fmt.Errorf("department %s not found", *departmentID))
		}
	}
	return nil
}

func (cs *counterService) Create(ctx context.Context, in CounterInput) (*types.Counter, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("missing_name", errors.New("counter name is required"))
	}
	c := &types.Counter{
		BranchID:     branchID,
		Name:         name,
		QueueID:      in.QueueID,
		DepartmentID: in.DepartmentID,
		Active:       true,
	}
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		bd, err := cs.clock.resolve(dbc, branchID, cs.now())
		if err != nil {
			return err
		}
		if err := cs.checkLine(dbc, bd.Branch, in.QueueID, in.DepartmentID); err != nil {
			return err
		}
		if err := cs.counterRepo.Create(dbc, c); err != nil {
			return fmt.Errorf("create counter: %w", err)
		}
		if in.Active != nil && !*in.Active {
			if err := cs.counterRepo.Update(dbc, branchID, c.ID, map[string]any{"active": false}); err != nil {
				return err
			}
			c.Active = false
		}
		return cs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityCounter, c.ID, "created", bd.Day, map[string]any{"name": name}),
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (cs *counterService) Update(ctx context.Context, id uuid.UUID, in CounterUpdate) (*types.Counter, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Counter
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apierr.BadRequest("missing_name", errors.New("counter name cannot be empty"))
			}
			updates["name"] = name
		}
		if in.QueueID != nil || in.DepartmentID != nil {
			bd, err := cs.clock.resolve(dbc, branchID, cs.now())
			if err != nil {
				return err
			}
			if err := cs.checkLine(dbc, bd.Branch, in.QueueID, in.DepartmentID); err != nil {
				return err
			}
			if in.QueueID != nil {
				updates["queue_id"] = *in.QueueID
			}
			if in.DepartmentID != nil {
				updates["department_id"] = *in.DepartmentID
			}
		}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if len(updates) > 0 {
			if err := cs.counterRepo.Update(dbc, branchID, c.ID, updates); err != nil {
				return fmt.Errorf("update counter: %w", err)
			}
		}
		if err := cs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityCounter, c.ID, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = cs.get(dbc, branchID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *counterService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		if err := cs.counterRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete counter: %w", err)
		}
		return cs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityCounter, id, "deleted", "", map[string]any{"name": c.Name}),
		})
	})
}

func (cs *counterService) Assign(ctx context.Context, counterID uuid.UUID, in AssignInput) (*types.CounterAssignment, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	if in.UserID == uuid.Nil {
		return nil, apierr.BadRequest("missing_user", errors.New("user_id is required"))
	}
	var out *types.CounterAssignment
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		bd, err := cs.clock.resolve(dbc, branchID, cs.now())
		if err != nil {
			return err
		}
		day, err := dayOrToday(in.Day, bd.Day)
		if err != nil {
			return err
		}
		c, err := cs.get(dbc, branchID, counterID)
		if err != nil {
			return err
		}
		if !c.Active {
			return apierr.BadRequest("counter_inactive", errors.New("counter is inactive"))
		}
		u, err := cs.userRepo.GetByID(dbc, in.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil || u.BranchID == nil || *u.BranchID != branchID {
			return notFound("user_not_found", "user", in.UserID)
		}
		if !u.Active {
			return apierr.BadRequest("user_inactive", errors.New("user is inactive"))
		}
		if cur, err := cs.assignmentRepo.GetForCounter(dbc, counterID, day); err != nil {
			return err
		} else if cur != nil {
			return apierr.Conflict("counter_taken", fmt.Errorf("counter already assigned for %s", day))
		}
		if cur, err := cs.assignmentRepo.GetForUser(dbc, in.UserID, day); err != nil {
			return err
		} else if cur != nil {
			return apierr.Conflict("user_already_assigned", fmt.Errorf("user already works another counter on %s", day))
		}
		by := rd.UserID
		a := &types.CounterAssignment{
			BranchID:   branchID,
			CounterID:  counterID,
			UserID:     in.UserID,
			Day:        day,
			AssignedBy: &by,
		}
		if err := cs.assignmentRepo.Create(dbc, a); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Conflict("already_assigned", err)
			}
			return fmt.Errorf("create assignment: %w", err)
		}
		a.Counter = c
		out = a
		return cs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityCounter, counterID, "assigned", day, map[string]any{"user_id": in.UserID.String()}),
		})
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, branchID, out)
	return out, nil
}

func (cs *counterService) Unassign(ctx context.Context, counterID uuid.UUID, day string) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		bd, err := cs.clock.resolve(dbc, branchID, cs.now())
		if err != nil {
			return err
		}
		day, err := dayOrToday(day, bd.Day)
		if err != nil {
			return err
		}
		if _, err := cs.get(dbc, branchID, counterID); err != nil {
			return err
		}
		cur, err := cs.assignmentRepo.GetForCounter(dbc, counterID, day)
		if err != nil {
			return err
		}
		if cur == nil {
			return apierr.NotFound("not_assigned", fmt.Errorf("counter has no assignment on %s", day))
		}
		if err := cs.assignmentRepo.DeleteForCounter(dbc, counterID, day); err != nil {
			return fmt.Errorf("delete assignment: %w", err)
		}
		return cs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityCounter, counterID, "unassigned", day, map[string]any{"user_id": cur.UserID.String()}),
		})
	})
}

func (cs *counterService) Assignments(ctx context.Context, day string) ([]*types.CounterAssignment, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	bd, err := cs.clock.resolve(dbc, branchID, cs.now())
	if err != nil {
		return nil, err
	}
	day, err = dayOrToday(day, bd.Day)
	if err != nil {
		return nil, err
	}
	return cs.assignmentRepo.ListByDay(dbc, branchID, day)
}

func (cs *counterService) Mine(ctx context.Context) (*types.CounterAssignment, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	bd, err := cs.clock.resolve(dbc, branchID, cs.now())
	if err != nil {
		return nil, err
	}
	a, err := cs.assignmentRepo.GetForUser(dbc, rd.UserID, bd.Day)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("not_assigned", fmt.Errorf("no counter assigned for %s", bd.Day))
	}
	return a, nil
}

func (cs *counterService) publish(ctx context.Context, branchID uuid.UUID, a *types.CounterAssignment) {
	if cs.events == nil || a == nil {
		return
	}
	cs.events.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.BranchChannel(branchID),
		Event:   realtime.SSEEventCounterAssigned,
		Data:    a,
	})
}

// dayOrToday validates a YYYY-MM-DD day, defaulting to today.
func dayOrToday(day, today string) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return today, nil
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return "", apierr.BadRequest("invalid_day", fmt.Errorf("day must be YYYY-MM-DD, got %q", day))
	}
	return day, nil
}
