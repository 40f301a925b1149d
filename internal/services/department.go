package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type DepartmentInput struct {
	Name            string `json:"name"`
	Prefix          string `json:"prefix"`
	Description     string `json:"description"`
	RequiresPayment bool   `json:"requires_payment"`
	IsIntake        bool   `json:"is_intake"`
	Position        int    `json:"position"`
	Active          *bool  `json:"active"`
}

type DepartmentUpdate struct {
	Name            *string `json:"name"`
	Prefix          *string `json:"prefix"`
	Description     *string `json:"description"`
	RequiresPayment *bool   `json:"requires_payment"`
	IsIntake        *bool   `json:"is_intake"`
	Position        *int    `json:"position"`
	Active          *bool   `json:"active"`
}

type DepartmentService interface {
	List(ctx context.Context, activeOnly bool) ([]*types.Department, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Department, error)
	Create(ctx context.Context, in DepartmentInput) (*types.Department, error)
	Update(ctx context.Context, id uuid.UUID, in DepartmentUpdate) (*types.Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type departmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	departmentRepo repos.DepartmentRepo
	counterRepo    repos.CounterRepo
	logRepo        repos.ActivityLogRepo
	clock          branchClock
}

func NewDepartmentService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	departmentRepo repos.DepartmentRepo,
	counterRepo repos.CounterRepo,
	logRepo repos.ActivityLogRepo,
) DepartmentService {
	return &departmentService{
		db:             db,
		log:            log.With("service", "DepartmentService"),
		departmentRepo: departmentRepo,
		counterRepo:    counterRepo,
		logRepo:        logRepo,
		clock:          branchClock{branches: branchRepo, settings: settingRepo},
	}
}

func (ds *departmentService) List(ctx context.Context, activeOnly bool) ([]*types.Department, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return ds.departmentRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID, activeOnly)
}

func (ds *departmentService) Get(ctx context.Context, id uuid.UUID) (*types.Department, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return ds.get(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (ds *departmentService) get(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Department, error) {
	d, err := ds.departmentRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load department: %w", err)
	}
	if d == nil {
		return nil, notFound("department_not_found", "department", id)
	}
	return d, nil
}

func (ds *departmentService) Create(ctx context.Context, in DepartmentInput) (*types.Department, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("missing_name", errors.New("department name is required"))
	}
	prefix, err := validPrefix(in.Prefix)
	if err != nil {
		return nil, err
	}
	d := &types.Department{
		BranchID:        branchID,
		Name:            name,
		Prefix:          prefix,
		Description:     strings.TrimSpace(in.Description),
		RequiresPayment: in.RequiresPayment,
		IsIntake:        in.IsIntake,
		Position:        in.Position,
		Active:          true,
	}
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		bd, err := ds.clock.resolve(dbc, branchID, timeNow())
		if err != nil {
			return err
		}
		if err := requireKind(bd.Branch, types.KindHospital); err != nil {
			return err
		}
		if err := ds.prefixFree(dbc, branchID, prefix, uuid.Nil); err != nil {
			return err
		}
		if err := ds.departmentRepo.Create(dbc, d); err != nil {
			return fmt.Errorf("create department: %w", err)
		}
		if in.Active != nil && !*in.Active {
			if err := ds.departmentRepo.Update(dbc, branchID, d.ID, map[string]any{"active": false}); err != nil {
				return err
			}
			d.Active = false
		}
		if d.IsIntake {
			if err := ds.departmentRepo.ClearIntake(dbc, branchID, d.ID); err != nil {
				return fmt.Errorf("clear intake: %w", err)
			}
		}
		return ds.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityDepartment, d.ID, "created", bd.Day, map[string]any{"name": name, "prefix": prefix}),
		})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (ds *departmentService) Update(ctx context.Context, id uuid.UUID, in DepartmentUpdate) (*types.Department, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("missing_name", errors.New("department name cannot be empty"))
		}
		updates["name"] = name
	}
	if in.Prefix != nil {
		prefix, err := validPrefix(*in.Prefix)
		if err != nil {
			return nil, err
		}
		updates["prefix"] = prefix
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.RequiresPayment != nil {
		updates["requires_payment"] = *in.RequiresPayment
	}
	if in.IsIntake != nil {
		updates["is_intake"] = *in.IsIntake
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var out *types.Department
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ds.get(dbc, branchID, id); err != nil {
			return err
		}
		if p, ok := updates["prefix"].(string); ok {
			if err := ds.prefixFree(dbc, branchID, p, id); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := ds.departmentRepo.Update(dbc, branchID, id, updates); err != nil {
				return fmt.Errorf("update department: %w", err)
			}
		}
		if in.IsIntake != nil && *in.IsIntake {
			if err := ds.departmentRepo.ClearIntake(dbc, branchID, id); err != nil {
				return fmt.Errorf("clear intake: %w", err)
			}
		}
		if err := ds.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityDepartment, id, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = ds.get(dbc, branchID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ds *departmentService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		d, err := ds.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		n, err := ds.counterRepo.CountByLine(dbc, id)
		if err != nil {
			return fmt.Errorf("count rooms: %w", err)
		}
		if n > 0 {
			return apierr.Conflict("department_in_use", fmt.Errorf("department has %d rooms", n))
		}
		if err := ds.departmentRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete department: %w", err)
		}
		return ds.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityDepartment, id, "deleted", "", map[string]any{"name": d.Name}),
		})
	})
}

// prefixFree rejects a prefix another live department of the branch already uses.
func (ds *departmentService) prefixFree(dbc dbctx.Context, branchID uuid.UUID, prefix string, self uuid.UUID) error {
	other, err := ds.departmentRepo.GetByPrefix(dbc, branchID, prefix)
	if err != nil {
		return fmt.Errorf("check prefix: %w", err)
	}
	if other != nil && other.ID != self {
		return errPrefixInUse(prefix, other.Name)
	}
	return nil
}
