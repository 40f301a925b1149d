package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

type EventInput struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Active   *bool      `json:"active"`
}

// EventUpdate patches an event. ClearEndsAt makes it open-ended.
type EventUpdate struct {
	Title       *string    `json:"title"`
	Body        *string    `json:"body"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	ClearEndsAt bool       `json:"clear_ends_at"`
	Active      *bool      `json:"active"`
}

type EventService interface {
	List(ctx context.Context) ([]*types.Event, error)
	Live(ctx context.Context) ([]*types.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Event, error)
	Create(ctx context.Context, in EventInput) (*types.Event, error)
	Update(ctx context.Context, id uuid.UUID, in EventUpdate) (*types.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	db        *gorm.DB
	log       *logger.Logger
	eventRepo repos.EventRepo
	logRepo   repos.ActivityLogRepo
	events    bus.Publisher
	now       func() time.Time
}

func NewEventService(
	db *gorm.DB,
	log *logger.Logger,
	eventRepo repos.EventRepo,
	logRepo repos.ActivityLogRepo,
	events bus.Publisher,
) EventService {
	return &eventService{
		db:        db,
		log:       log.With("service", "EventService"),
		eventRepo: eventRepo,
		logRepo:   logRepo,
		events:    events,
		now:       time.Now,
	}
}

func (es *eventService) List(ctx context.Context) ([]*types.Event, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return es.eventRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID)
}

func (es *eventService) Live(ctx context.Context) ([]*types.Event, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return es.eventRepo.ListLive(dbctx.Context{Ctx: ctx}, branchID, es.now().UTC())
}

func (es *eventService) Get(ctx context.Context, id uuid.UUID) (*types.Event, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return es.get(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (es *eventService) get(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Event, error) {
	e, err := es.eventRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if e == nil {
		return nil, notFound("event_not_found", "event", id)
	}
	return e, nil
}

func checkWindow(starts time.Time, ends *time.Time) error {
	if ends != nil && !ends.After(starts) {
		return apierr.BadRequest("invalid_window", errors.New("ends_at must be after starts_at"))
	}
	return nil
}

func (es *eventService) Create(ctx context.Context, in EventInput) (*types.Event, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("missing_title", errors.New("event title is required"))
	}
	starts := es.now().UTC()
	if in.StartsAt != nil {
		starts = in.StartsAt.UTC()
	}
	var ends *time.Time
	if in.EndsAt != nil {
		e := in.EndsAt.UTC()
		ends = &e
	}
	if err := checkWindow(starts, ends); err != nil {
		return nil, err
	}
	uid := rd.UserID
	e := &types.Event{
		BranchID:  branchID,
		Title:     title,
		Body:      strings.TrimSpace(in.Body),
		StartsAt:  starts,
		EndsAt:    ends,
		Active:    true,
		CreatedBy: &uid,
	}
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := es.eventRepo.Create(dbc, e); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		if in.Active != nil && !*in.Active {
			if err := es.eventRepo.Update(dbc, branchID, e.ID, map[string]any{"active": false}); err != nil {
				return err
			}
			e.Active = false
		}
		return es.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityEvent, e.ID, "created", "", map[string]any{"title": title}),
		})
	})
	if err != nil {
		return nil, err
	}
	es.publish(ctx, branchID)
	return e, nil
}

func (es *eventService) Update(ctx context.Context, id uuid.UUID, in EventUpdate) (*types.Event, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Event
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		cur, err := es.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apierr.BadRequest("missing_title", errors.New("event title cannot be empty"))
			}
			updates["title"] = title
		}
		if in.Body != nil {
			updates["body"] = strings.TrimSpace(*in.Body)
		}
		starts, ends := cur.StartsAt, cur.EndsAt
		if in.StartsAt != nil {
			starts = in.StartsAt.UTC()
			updates["starts_at"] = starts
		}
		switch {
		case in.ClearEndsAt:
			ends = nil
			updates["ends_at"] = nil
		case in.EndsAt != nil:
			e := in.EndsAt.UTC()
			ends = &e
			updates["ends_at"] = e
		}
		if err := checkWindow(starts, ends); err != nil {
			return err
		}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if len(updates) > 0 {
			if err := es.eventRepo.Update(dbc, branchID, id, updates); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
		}
		if err := es.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityEvent, id, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = es.get(dbc, branchID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	es.publish(ctx, branchID)
	return out, nil
}

func (es *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		e, err := es.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		if err := es.eventRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return es.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityEvent, id, "deleted", "", map[string]any{"title": e.Title}),
		})
	})
	if err != nil {
		return err
	}
	es.publish(ctx, branchID)
	return nil
}

func (es *eventService) publish(ctx context.Context, branchID uuid.UUID) {
	if es.events == nil {
		return
	}
	live, err := es.eventRepo.ListLive(dbctx.Context{Ctx: ctx}, branchID, es.now().UTC())
	if err != nil {
		es.log.Warn("load live events for broadcast failed", "error", err)
		return
	}
	es.events.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.BranchChannel(branchID),
		Event:   realtime.SSEEventEventsChanged,
		Data:    map[string]any{"events": live},
	})
}
