package queueing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type DepartmentRepo interface {
	Create(dbc dbctx.Context, d *types.Department) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Department, error)
	GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Department, error)
	GetByPrefix(dbc dbctx.Context, branchID uuid.UUID, prefix string) (*types.Department, error)
	GetIntake(dbc dbctx.Context, branchID uuid.UUID) (*types.Department, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Department, error)
	Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error
	ClearIntake(dbc dbctx.Context, branchID uuid.UUID, except uuid.UUID) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type departmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDepartmentRepo(db *gorm.DB, baseLog *logger.Logger) DepartmentRepo {
	repoLog := baseLog.With("repo", "DepartmentRepo")
	return &departmentRepo{db: db, log: repoLog}
}

func (r *departmentRepo) Create(dbc dbctx.Context, d *types.Department) error {
	return dbc.DB(r.db).Create(d).Error
}

func (r *departmentRepo) first(q *gorm.DB) (*types.Department, error) {
	var d types.Department
	err := q.First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *departmentRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Department, error) {
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id))
}

func (r *departmentRepo) GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Department, error) {
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND name = ?", branchID, name))
}

func (r *departmentRepo) GetByPrefix(dbc dbctx.Context, branchID uuid.UUID, prefix string) (*types.Department, error) {
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND prefix = ?", branchID, prefix))
}

// GetIntake returns the flagged intake department, falling back to the first active one.
func (r *departmentRepo) GetIntake(dbc dbctx.Context, branchID uuid.UUID) (*types.Department, error) {
	d, err := r.first(dbc.DB(r.db).Where("branch_id = ? AND is_intake = ? AND active = ?", branchID, true, true))
	if err != nil || d != nil {
		return d, err
	}
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND active = ?", branchID, true).Order("position ASC, created_at ASC"))
}

func (r *departmentRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Department, error) {
	var out []*types.Department
	q := dbc.DB(r.db).Where("branch_id = ?", branchID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("position ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *departmentRepo) Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Department{}).Where("branch_id = ? AND id = ?", branchID, id).Updates(updates).Error
}

// ClearIntake unflags every intake department of the branch other than except.
func (r *departmentRepo) ClearIntake(dbc dbctx.Context, branchID uuid.UUID, except uuid.UUID) error {
	return dbc.DB(r.db).
		Model(&types.Department{}).
		Where("branch_id = ? AND id <> ? AND is_intake = ?", branchID, except, true).
		Update("is_intake", false).Error
}

func (r *departmentRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Department{}).Error
}
