package identity

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type RoleRepo interface {
	Create(dbc dbctx.Context, role *types.Role) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Role, error)
	GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Role, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Role, error)
	ListAll(dbc dbctx.Context) ([]*types.Role, error)
	Update(dbc dbctx.Context, role *types.Role) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type roleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	repoLog := baseLog.With("repo", "RoleRepo")
	return &roleRepo{db: db, log: repoLog}
}

func (rr *roleRepo) Create(dbc dbctx.Context, role *types.Role) error {
	return dbc.DB(rr.db).Create(role).Error
}

func (rr *roleRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Role, error) {
	var r types.Role
	err := dbc.DB(rr.db).Where("branch_id = ? AND id = ?", branchID, id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (rr *roleRepo) GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Role, error) {
	var r types.Role
	err := dbc.DB(rr.db).Where("branch_id = ? AND name = ?", branchID, name).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (rr *roleRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Role, error) {
	var out []*types.Role
	if err := dbc.DB(rr.db).Where("branch_id = ?", branchID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll feeds the policy loader.
func (rr *roleRepo) ListAll(dbc dbctx.Context) ([]*types.Role, error) {
	var out []*types.Role
	if err := dbc.DB(rr.db).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (rr *roleRepo) Update(dbc dbctx.Context, role *types.Role) error {
	return dbc.DB(rr.db).
		Model(&types.Role{}).
		Where("branch_id = ? AND id = ?", role.BranchID, role.ID).
		Updates(map[string]any{
			"name":        role.Name,
			"description": role.Description,
			"permissions": role.Permissions,
		}).Error
}

func (rr *roleRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(rr.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Role{}).Error
}
