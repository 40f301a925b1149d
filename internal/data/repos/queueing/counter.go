package queueing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type CounterRepo interface {
	Create(dbc dbctx.Context, c *types.Counter) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Counter, error)
	GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Counter, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Counter, error)
	CountByLine(dbc dbctx.Context, lineID uuid.UUID) (int64, error)
	Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type counterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCounterRepo(db *gorm.DB, baseLog *logger.Logger) CounterRepo {
	repoLog := baseLog.With("repo", "CounterRepo")
	return &counterRepo{db: db, log: repoLog}
}

func (r *counterRepo) Create(dbc dbctx.Context, c *types.Counter) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *counterRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Counter, error) {
	var c types.Counter
	err := dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *counterRepo) GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Counter, error) {
	var c types.Counter
	err := dbc.DB(r.db).Where("branch_id = ? AND name = ?", branchID, name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *counterRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Counter, error) {
	var out []*types.Counter
	if err := dbc.DB(r.db).Where("branch_id = ?", branchID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByLine counts counters serving a queue or department.
func (r *counterRepo) CountByLine(dbc dbctx.Context, lineID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Counter{}).
		Where("queue_id = ? OR department_id = ?", lineID, lineID).
		Count(&n).Error
	return n, err
}

func (r *counterRepo) Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Counter{}).Where("branch_id = ? AND id = ?", branchID, id).Updates(updates).Error
}

func (r *counterRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Counter{}).Error
}
