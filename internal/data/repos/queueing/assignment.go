package queueing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, a *types.CounterAssignment) error
	GetForCounter(dbc dbctx.Context, counterID uuid.UUID, day string) (*types.CounterAssignment, error)
	GetForUser(dbc dbctx.Context, userID uuid.UUID, day string) (*types.CounterAssignment, error)
	ListByDay(dbc dbctx.Context, branchID uuid.UUID, day string) ([]*types.CounterAssignment, error)
	Delete(dbc dbctx.Context, branchID, id uuid.UUID) error
	DeleteForCounter(dbc dbctx.Context, counterID uuid.UUID, day string) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	repoLog := baseLog.With("repo", "AssignmentRepo")
	return &assignmentRepo{db: db, log: repoLog}
}

func (r *assignmentRepo) Create(dbc dbctx.Context, a *types.CounterAssignment) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *assignmentRepo) first(q *gorm.DB) (*types.CounterAssignment, error) {
	var a types.CounterAssignment
	err := q.Preload("Counter").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetForCounter(dbc dbctx.Context, counterID uuid.UUID, day string) (*types.CounterAssignment, error) {
	return r.first(dbc.DB(r.db).Where("counter_id = ? AND day = ?", counterID, day))
}

func (r *assignmentRepo) GetForUser(dbc dbctx.Context, userID uuid.UUID, day string) (*types.CounterAssignment, error) {
	return r.first(dbc.DB(r.db).Where("user_id = ? AND day = ?", userID, day))
}

func (r *assignmentRepo) ListByDay(dbc dbctx.Context, branchID uuid.UUID, day string) ([]*types.CounterAssignment, error) {
	var out []*types.CounterAssignment
	if err := dbc.DB(r.db).
		Preload("Counter").
		Where("branch_id = ? AND day = ?", branchID, day).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) Delete(dbc dbctx.Context, branchID, id uuid.UUID) error {
	return dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).Delete(&types.CounterAssignment{}).Error
}

func (r *assignmentRepo) DeleteForCounter(dbc dbctx.Context, counterID uuid.UUID, day string) error {
	return dbc.DB(r.db).Where("counter_id = ? AND day = ?", counterID, day).Delete(&types.CounterAssignment{}).Error
}
