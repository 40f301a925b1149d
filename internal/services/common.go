package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/tenant"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
)

// dayLayout is the format of service days.
const dayLayout = "2006-01-02"

// timeNow is the clock for records that only need a service day.
var timeNow = time.Now

var (
	errNoRequestData = errors.New("request data not set in context")
	errNoBranch      = errors.New("caller is not scoped to a branch")
	errNoStorage     = apierr.New(http.StatusServiceUnavailable, "storage_unavailable", errors.New("object storage is not configured"))
)

func requestData(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", errNoRequestData)
	}
	return rd, nil
}

// callerBranch returns the caller and the branch every query must be scoped to.
func callerBranch(ctx context.Context) (*ctxutil.RequestData, uuid.UUID, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if rd.BranchID == uuid.Nil {
		return nil, uuid.Nil, apierr.Forbidden("no_branch", errNoBranch)
	}
	return rd, rd.BranchID, nil
}

// withTx runs fn inside dbc's transaction, or a new one when dbc has none.
func withTx(db *gorm.DB, dbc dbctx.Context, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

// branchClock resolves the service day of a branch.
type branchClock struct {
	branches repos.BranchRepo
	settings repos.SettingRepo
}

type branchDay struct {
	Branch  *types.Branch
	Setting *types.Setting
	Day     string
}

func (bc branchClock) resolve(dbc dbctx.Context, branchID uuid.UUID, now time.Time) (*branchDay, error) {
	b, err := bc.branches.GetByID(dbc, branchID)
	if err != nil {
		return nil, fmt.Errorf("load branch: %w", err)
	}
	if b == nil {
		return nil, apierr.NotFound("branch_not_found", fmt.Errorf("branch %s not found", branchID))
	}
	s, err := bc.settings.GetByBranchID(dbc, branchID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	startHour := 0
	if s != nil {
		startHour = s.DayStartHour
	}
	return &branchDay{
		Branch:  b,
		Setting: s,
		Day:     tenant.ServiceDay(now, b.Location(), startHour),
	}, nil
}

func requireKind(b *types.Branch, kind types.BranchKind) error {
	if b.Kind != kind {
		return apierr.BadRequest("wrong_branch_kind", fmt.Errorf("operation requires a %s branch", kind))
	}
	return nil
}

// activity builds an activity log row. An empty day falls back to the UTC date.
func activity(branchID uuid.UUID, userID uuid.UUID, entity string, entityID uuid.UUID, action, day string, detail map[string]any) *types.ActivityLog {
	if day == "" {
		day = timeNow().UTC().Format(dayLayout)
	}
	l := &types.ActivityLog{
		BranchID:   branchID,
		EntityType: entity,
		Action:     action,
		Day:        day,
		Detail:     detail,
	}
	if userID != uuid.Nil {
		u := userID
		l.UserID = &u
	}
	if entityID != uuid.Nil {
		e := entityID
		l.EntityID = &e
	}
	return l
}

func notFound(code, what string, id uuid.UUID) error {
	return apierr.NotFound(code, fmt.Errorf("%s %s not found", what, id))
}
