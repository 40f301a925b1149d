package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/identity"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

// PolicyReloader rebuilds authorization policies after roles change.
type PolicyReloader interface {
	Reload(ctx context.Context) error
}

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type RoleService interface {
	List(ctx context.Context) ([]*types.Role, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Role, error)
	Create(ctx context.Context, in RoleInput) (*types.Role, error)
	Update(ctx context.Context, id uuid.UUID, in RoleInput) (*types.Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type roleService struct {
	db       *gorm.DB
	log      *logger.Logger
	roleRepo repos.RoleRepo
	userRepo repos.UserRepo
	logRepo  repos.ActivityLogRepo
	policies PolicyReloader
}

func NewRoleService(
	db *gorm.DB,
	log *logger.Logger,
	roleRepo repos.RoleRepo,
	userRepo repos.UserRepo,
	logRepo repos.ActivityLogRepo,
	policies PolicyReloader,
) RoleService {
	return &roleService{
		db:       db,
		log:      log.With("service", "RoleService"),
		roleRepo: roleRepo,
		userRepo: userRepo,
		logRepo:  logRepo,
		policies: policies,
	}
}

func (rs *roleService) List(ctx context.Context) ([]*types.Role, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return rs.roleRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID)
}

func (rs *roleService) Get(ctx context.Context, id uuid.UUID) (*types.Role, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	r, err := rs.roleRepo.GetByID(dbctx.Context{Ctx: ctx}, branchID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, notFound("role_not_found", "role", id)
	}
	return r, nil
}

func (rs *roleService) Create(ctx context.Context, in RoleInput) (*types.Role, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("missing_name", errors.New("role name is required"))
	}
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	role := &types.Role{
		BranchID:    branchID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Permissions: perms,
	}
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := rs.roleRepo.Create(dbc, role); err != nil {
			return fmt.Errorf("create role: %w", err)
		}
		return rs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityRole, role.ID, "created", "", map[string]any{"name": name, "permissions": []string(perms)}),
		})
	})
	if err != nil {
		return nil, err
	}
	rs.reload(ctx)
	return role, nil
}

func (rs *roleService) Update(ctx context.Context, id uuid.UUID, in RoleInput) (*types.Role, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	var role *types.Role
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		r, err := rs.roleRepo.GetByID(dbc, branchID, id)
		if err != nil {
			return err
		}
		if r == nil {
			return notFound("role_not_found", "role", id)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			r.Name = name
		}
		r.Description = strings.TrimSpace(in.Description)
		r.Permissions = perms
		if err := rs.roleRepo.Update(dbc, r); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		role = r
		return rs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityRole, r.ID, "updated", "", map[string]any{"name": r.Name, "permissions": []string(perms)}),
		})
	})
	if err != nil {
		return nil, err
	}
	rs.reload(ctx)
	return role, nil
}

func (rs *roleService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		r, err := rs.roleRepo.GetByID(dbc, branchID, id)
		if err != nil {
			return err
		}
		if r == nil {
			return notFound("role_not_found", "role", id)
		}
		n, err := rs.userRepo.CountByRole(dbc, id)
		if err != nil {
			return fmt.Errorf("count role users: %w", err)
		}
		if n > 0 {
			return apierr.Conflict("role_in_use", fmt.Errorf("role is assigned to %d users", n))
		}
		if err := rs.roleRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		return rs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityRole, id, "deleted", "", map[string]any{"name": r.Name}),
		})
	})
	if err != nil {
		return err
	}
	rs.reload(ctx)
	return nil
}

// reload is best effort; the committed role change stands even if policies lag.
func (rs *roleService) reload(ctx context.Context) {
	if rs.policies == nil {
		return
	}
	if err := rs.policies.Reload(ctx); err != nil {
		rs.log.Error("reload policies failed", "error", err)
	}
}

func normalizePermissions(raw []string) (datatypes.JSONSlice[string], error) {
	seen := make(map[string]bool, len(raw))
	out := make(datatypes.JSONSlice[string], 0, len(raw))
	for _, p := range raw {
		perm, ok := identity.ParsePermission(p)
		if !ok {
			return nil, apierr.BadRequest("invalid_permission", fmt.Errorf("invalid permission %q", p))
		}
		s := perm.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
