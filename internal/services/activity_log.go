package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type ActivityLogQuery struct {
	EntityType string
	EntityID   *uuid.UUID
	UserID     *uuid.UUID
	Day        string
	Limit      int
	Offset     int
}

type ActivityLogService interface {
	// List returns the branch's activity newest first.
	List(ctx context.Context, q ActivityLogQuery) ([]*types.ActivityLog, error)
}

type activityLogService struct {
	log     *logger.Logger
	logRepo repos.ActivityLogRepo
}

func NewActivityLogService(log *logger.Logger, logRepo repos.ActivityLogRepo) ActivityLogService {
	return &activityLogService{log: log.With("service", "ActivityLogService"), logRepo: logRepo}
}

func (s *activityLogService) List(ctx context.Context, q ActivityLogQuery) ([]*types.ActivityLog, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	day := strings.TrimSpace(q.Day)
	if day != "" {
		if day, err = dayOrToday(day, ""); err != nil {
			return nil, err
		}
	}
	return s.logRepo.List(dbctx.Context{Ctx: ctx}, branchID, repos.ActivityLogFilter{
		EntityType: strings.ToLower(strings.TrimSpace(q.EntityType)),
		EntityID:   q.EntityID,
		UserID:     q.UserID,
		Day:        day,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
}
