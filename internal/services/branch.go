package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
)

var errSuperAdminOnly = errors.New("only super admins manage branches")

type BranchInput struct {
	Name     string           `json:"name"`
	Code     string           `json:"code"`
	Kind     types.BranchKind `json:"kind"`
	Address  string           `json:"address"`
	Phone    string           `json:"phone"`
	Timezone string           `json:"timezone"`
}

type BranchUpdate struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Timezone *string `json:"timezone"`
	Active   *bool   `json:"active"`
}

type BranchService interface {
	List(ctx context.Context) ([]*types.Branch, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Branch, error)
	Create(ctx context.Context, in BranchInput) (*types.Branch, error)
	Update(ctx context.Context, id uuid.UUID, in BranchUpdate) (*types.Branch, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type branchService struct {
	db          *gorm.DB
	log         *logger.Logger
	branchRepo  repos.BranchRepo
	settingRepo repos.SettingRepo
	logRepo     repos.ActivityLogRepo
	logos       LogoService
}

func NewBranchService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	logRepo repos.ActivityLogRepo,
	logos LogoService,
) BranchService {
	return &branchService{
		db:          db,
		log:         log.With("service", "BranchService"),
		branchRepo:  branchRepo,
		settingRepo: settingRepo,
		logRepo:     logRepo,
		logos:       logos,
	}
}

func superAdmin(ctx context.Context) (uuid.UUID, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !rd.SuperAdmin {
		return uuid.Nil, apierr.Forbidden("forbidden", errSuperAdminOnly)
	}
	return rd.UserID, nil
}

func (bs *branchService) List(ctx context.Context) ([]*types.Branch, error) {
	if _, err := superAdmin(ctx); err != nil {
		return nil, err
	}
	return bs.branchRepo.List(dbctx.Context{Ctx: ctx})
}

// Get is open to members of the branch as well as super admins.
func (bs *branchService) Get(ctx context.Context, id uuid.UUID) (*types.Branch, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.SuperAdmin && rd.BranchID != id {
		return nil, notFound("branch_not_found", "branch", id)
	}
	b, err := bs.branchRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound("branch_not_found", "branch", id)
	}
	return b, nil
}

func (bs *branchService) Create(ctx context.Context, in BranchInput) (*types.Branch, error) {
	userID, err := superAdmin(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if name == "" || code == "" {
		return nil, apierr.BadRequest("missing_fields", errors.New("name and code are required"))
	}
	if !in.Kind.Valid() {
		return nil, apierr.BadRequest("invalid_kind", fmt.Errorf("kind must be %q or %q", types.KindBank, types.KindHospital))
	}
	tz, err := validTimezone(in.Timezone)
	if err != nil {
		return nil, err
	}

	branch := &types.Branch{
		Name:     name,
		Code:     code,
		Kind:     in.Kind,
		Address:  strings.TrimSpace(in.Address),
		Phone:    strings.TrimSpace(in.Phone),
		Timezone: tz,
		Active:   true,
	}
	setting := &types.Setting{DisplayName: name, BoardWaitingRows: 8}
	err = bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := bs.branchRepo.GetByCode(dbc, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("branch_code_taken", fmt.Errorf("branch code %s already exists", code))
		}
		if err := bs.branchRepo.Create(dbc, branch); err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		setting.BranchID = branch.ID
		if err := bs.settingRepo.Create(dbc, setting); err != nil {
			return fmt.Errorf("create settings: %w", err)
		}
		return bs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branch.ID, userID, audit.EntityBranch, branch.ID, "created", "", map[string]any{"code": code, "kind": string(in.Kind)}),
		})
	})
	if err != nil {
		return nil, err
	}

	// the branch is usable without a logo, so a storage failure only gets logged
	if bs.logos != nil {
		if _, err := bs.logos.GenerateInitials(ctx, branch, setting); err != nil {
			bs.log.Warn("initial logo generation failed", "branch_id", branch.ID, "error", err)
		}
	}
	return branch, nil
}

func (bs *branchService) Update(ctx context.Context, id uuid.UUID, in BranchUpdate) (*types.Branch, error) {
	userID, err := superAdmin(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("missing_fields", errors.New("name cannot be empty"))
		}
		updates["name"] = name
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Timezone != nil {
		tz, err := validTimezone(*in.Timezone)
		if err != nil {
			return nil, err
		}
		updates["timezone"] = tz
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var out *types.Branch
	err = bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		b, err := bs.branchRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("branch_not_found", "branch", id)
		}
		if len(updates) > 0 {
			if err := bs.branchRepo.Update(dbc, id, updates); err != nil {
				return fmt.Errorf("update branch: %w", err)
			}
		}
		if err := bs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(id, userID, audit.EntityBranch, id, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = bs.branchRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (bs *branchService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := superAdmin(ctx); err != nil {
		return err
	}
	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		b, err := bs.branchRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("branch_not_found", "branch", id)
		}
		return bs.branchRepo.Delete(dbc, id)
	})
}

func validTimezone(raw string) (string, error) {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", apierr.BadRequest("invalid_timezone", fmt.Errorf("unknown timezone %q", raw))
	}
	return tz, nil
}

// mapKeys records which fields an update touched. Password values never reach the log.
func mapKeys(updates map[string]any) map[string]any {
	fields := make([]string, 0, len(updates))
	for k := range updates {
		if k != "password" {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return map[string]any{"fields": fields}
}
