package content

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type EventRepo interface {
	Create(dbc dbctx.Context, e *types.Event) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Event, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Event, error)
	ListLive(dbc dbctx.Context, branchID uuid.UUID, at time.Time) ([]*types.Event, error)
	Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "EventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (r *eventRepo) Create(dbc dbctx.Context, e *types.Event) error {
	return dbc.DB(r.db).Create(e).Error
}

func (r *eventRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Event, error) {
	var e types.Event
	err := dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Event, error) {
	var out []*types.Event
	if err := dbc.DB(r.db).Where("branch_id = ?", branchID).Order("starts_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) ListLive(dbc dbctx.Context, branchID uuid.UUID, at time.Time) ([]*types.Event, error) {
	var out []*types.Event
	if err := dbc.DB(r.db).
		Where("branch_id = ? AND active = ? AND starts_at <= ?", branchID, true, at).
		Where("ends_at IS NULL OR ends_at > ?", at).
		Order("starts_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) Update(dbc dbctx.Context, branchID, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Event{}).Where("branch_id = ? AND id = ?", branchID, id).Updates(updates).Error
}

func (r *eventRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.Event{}).Error
}
