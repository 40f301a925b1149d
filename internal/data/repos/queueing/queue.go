package queueing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type QueueRepo interface {
	Create(dbc dbctx.Context, q *types.Queue) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Queue, error)
	GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Queue, error)
	GetByPrefix(dbc dbctx.Context, branchID uuid.UUID, prefix string) (*types.Queue, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Queue, error)
	Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type queueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQueueRepo(db *gorm.DB, baseLog *logger.Logger) QueueRepo {
	repoLog := baseLog.With("repo", "QueueRepo")
	return &queueRepo{db: db, log: repoLog}
}

func (r *queueRepo) Create(dbc dbctx.Context, q *types.Queue) error {
	return dbc.DB(r.db).Create(q).Error
}

func (r *queueRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Queue, error) {
	var q types.Queue
	err := dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *queueRepo) GetByName(dbc dbctx.Context, branchID uuid.UUID, name string) (*types.Queue, error) {
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND name = ?", branchID, name))
}

func (r *queueRepo) GetByPrefix(dbc dbctx.Context, branchID uuid.UUID, prefix string) (*types.Queue, error) {
	return r.first(dbc.DB(r.db).Where("branch_id = ? AND prefix = ?", branchID, prefix))
}

func (r *queueRepo) first(q *gorm.DB) (*types.Queue, error) {
	var out types.Queue
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *queueRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID, activeOnly bool) ([]*types.Queue, error) {
	var out []*types.Queue
	q := dbc.DB(r.db).Where("branch_id = ?", branchID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("position ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *queueRepo) Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Queue{}).Where("branch_id = ? AND id = ?", branchID, id).Updates(updates).Error
}

func (r *queueRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Queue{}).Error
}
