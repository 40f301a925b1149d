package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

type SettingUpdate struct {
	DisplayName       *string `json:"display_name"`
	TicketHeader      *string `json:"ticket_header"`
	TicketFooter      *string `json:"ticket_footer"`
	ThemeColor        *string `json:"theme_color"`
	BoardWaitingRows  *int    `json:"board_waiting_rows"`
	DayStartHour      *int    `json:"day_start_hour"`
	ShowCustomerNames *bool   `json:"show_customer_names"`
}

type SettingService interface {
	Get(ctx context.Context) (*types.Setting, error)
	Update(ctx context.Context, in SettingUpdate) (*types.Setting, error)
	UploadLogo(ctx context.Context, raw []byte) (*types.Setting, error)
	RegenerateLogo(ctx context.Context) (*types.Setting, error)
}

type settingService struct {
	db          *gorm.DB
	log         *logger.Logger
	branchRepo  repos.BranchRepo
	settingRepo repos.SettingRepo
	logRepo     repos.ActivityLogRepo
	logos       LogoService
	events      bus.Publisher
}

func NewSettingService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	logRepo repos.ActivityLogRepo,
	logos LogoService,
	events bus.Publisher,
) SettingService {
	return &settingService{
		db:          db,
		log:         log.With("service", "SettingService"),
		branchRepo:  branchRepo,
		settingRepo: settingRepo,
		logRepo:     logRepo,
		logos:       logos,
		events:      events,
	}
}

func (ss *settingService) Get(ctx context.Context) (*types.Setting, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return ss.load(dbctx.Context{Ctx: ctx}, branchID)
}

func (ss *settingService) load(dbc dbctx.Context, branchID uuid.UUID) (*types.Setting, error) {
	s, err := ss.settingRepo.GetByBranchID(dbc, branchID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if s == nil {
		return nil, apierr.NotFound("settings_not_found", errors.New("branch has no settings"))
	}
	return s, nil
}

func (ss *settingService) Update(ctx context.Context, in SettingUpdate) (*types.Setting, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if in.TicketHeader != nil {
		updates["ticket_header"] = strings.TrimSpace(*in.TicketHeader)
	}
	if in.TicketFooter != nil {
		updates["ticket_footer"] = strings.TrimSpace(*in.TicketFooter)
	}
	if in.ThemeColor != nil {
		c := strings.TrimSpace(*in.ThemeColor)
		if c != "" {
			if _, err := parseHexColor(c); err != nil {
				return nil, apierr.BadRequest("invalid_theme_color", fmt.Errorf("theme_color must be #RRGGBB"))
			}
			c = "#" + strings.ToUpper(strings.TrimPrefix(c, "#"))
		}
		updates["theme_color"] = c
	}
	if in.BoardWaitingRows != nil {
		if *in.BoardWaitingRows < 1 || *in.BoardWaitingRows > 50 {
			return nil, apierr.BadRequest("invalid_waiting_rows", errors.New("board_waiting_rows must be between 1 and 50"))
		}
		updates["board_waiting_rows"] = *in.BoardWaitingRows
	}
	if in.DayStartHour != nil {
		if *in.DayStartHour < 0 || *in.DayStartHour > 23 {
			return nil, apierr.BadRequest("invalid_day_start_hour", errors.New("day_start_hour must be between 0 and 23"))
		}
		updates["day_start_hour"] = *in.DayStartHour
	}
	if in.ShowCustomerNames != nil {
		updates["show_customer_names"] = *in.ShowCustomerNames
	}

	var out *types.Setting
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		s, err := ss.load(dbc, branchID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := ss.settingRepo.Update(dbc, branchID, updates); err != nil {
				return fmt.Errorf("update settings: %w", err)
			}
		}
		if err := ss.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntitySetting, s.ID, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = ss.load(dbc, branchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ss.publish(ctx, out)
	return out, nil
}

func (ss *settingService) UploadLogo(ctx context.Context, raw []byte) (*types.Setting, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	if ss.logos == nil {
		return nil, errNoStorage
	}
	dbc := dbctx.Context{Ctx: ctx}
	s, err := ss.load(dbc, branchID)
	if err != nil {
		return nil, err
	}
	if _, err := ss.logos.UploadImage(ctx, branchID, s.LogoKey, raw); err != nil {
		return nil, err
	}
	return ss.afterLogo(ctx, branchID, "logo_uploaded")
}

func (ss *settingService) RegenerateLogo(ctx context.Context) (*types.Setting, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	if ss.logos == nil {
		return nil, errNoStorage
	}
	dbc := dbctx.Context{Ctx: ctx}
	b, err := ss.branchRepo.GetByID(dbc, branchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound("branch_not_found", "branch", branchID)
	}
	s, err := ss.load(dbc, branchID)
	if err != nil {
		return nil, err
	}
	if _, err := ss.logos.GenerateInitials(ctx, b, s); err != nil {
		return nil, err
	}
	return ss.afterLogo(ctx, branchID, "logo_generated")
}

func (ss *settingService) afterLogo(ctx context.Context, branchID uuid.UUID, action string) (*types.Setting, error) {
	rd, _ := requestData(ctx)
	dbc := dbctx.Context{Ctx: ctx}
	s, err := ss.load(dbc, branchID)
	if err != nil {
		return nil, err
	}
	if rd != nil {
		if err := ss.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntitySetting, s.ID, action, "", nil),
		}); err != nil {
			ss.log.Warn("activity log write failed", "action", action, "error", err)
		}
	}
	ss.publish(ctx, s)
	return s, nil
}

func (ss *settingService) publish(ctx context.Context, s *types.Setting) {
	if ss.events == nil || s == nil {
		return
	}
	ss.events.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.BranchChannel(s.BranchID),
		Event:   realtime.SSEEventSettingsChanged,
		Data:    s,
	})
}
