package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type Filter struct {
	EntityType string
	EntityID   *uuid.UUID
	UserID     *uuid.UUID
	Day        string
	Limit      int
	Offset     int
}

type ActivityLogRepo interface {
	Create(dbc dbctx.Context, entries []*types.ActivityLog) error
	List(dbc dbctx.Context, branchID uuid.UUID, f Filter) ([]*types.ActivityLog, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	repoLog := baseLog.With("repo", "ActivityLogRepo")
	return &activityLogRepo{db: db, log: repoLog}
}

func (r *activityLogRepo) Create(dbc dbctx.Context, entries []*types.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&entries).Error
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (r *activityLogRepo) List(dbc dbctx.Context, branchID uuid.UUID, f Filter) ([]*types.ActivityLog, error) {
	q := dbc.DB(r.db).Where("branch_id = ?", branchID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Day != "" {
		q = q.Where("day = ?", f.Day)
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	var out []*types.ActivityLog
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
