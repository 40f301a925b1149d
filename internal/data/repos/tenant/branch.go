package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type BranchRepo interface {
	Create(dbc dbctx.Context, branch *types.Branch) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Branch, error)
	List(dbc dbctx.Context) ([]*types.Branch, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type branchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBranchRepo(db *gorm.DB, baseLog *logger.Logger) BranchRepo {
	repoLog := baseLog.With("repo", "BranchRepo")
	return &branchRepo{db: db, log: repoLog}
}

func (r *branchRepo) Create(dbc dbctx.Context, branch *types.Branch) error {
	return dbc.DB(r.db).Create(branch).Error
}

func (r *branchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error) {
	var b types.Branch
	err := dbc.DB(r.db).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *branchRepo) GetByCode(dbc dbctx.Context, code string) (*types.Branch, error) {
	var b types.Branch
	err := dbc.DB(r.db).Where("code = ?", code).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *branchRepo) List(dbc dbctx.Context) ([]*types.Branch, error) {
	var out []*types.Branch
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *branchRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Branch{}).Where("id = ?", id).Updates(updates).Error
}

func (r *branchRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Branch{}).Error
}
