package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/queueing"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

type QueueInput struct {
	Name        string           `json:"name"`
	Prefix      string           `json:"prefix"`
	Description string           `json:"description"`
	Menu        []types.MenuItem `json:"menu"`
	Position    int              `json:"position"`
	Active      *bool            `json:"active"`
}

type QueueUpdate struct {
	Name        *string           `json:"name"`
	Prefix      *string           `json:"prefix"`
	Description *string           `json:"description"`
	Menu        *[]types.MenuItem `json:"menu"`
	Position    *int              `json:"position"`
	Active      *bool             `json:"active"`
}

type QueueService interface {
	List(ctx context.Context, activeOnly bool) ([]*types.Queue, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Queue, error)
	Create(ctx context.Context, in QueueInput) (*types.Queue, error)
	Update(ctx context.Context, id uuid.UUID, in QueueUpdate) (*types.Queue, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type queueService struct {
	db          *gorm.DB
	log         *logger.Logger
	queueRepo   repos.QueueRepo
	counterRepo repos.CounterRepo
	logRepo     repos.ActivityLogRepo
	clock       branchClock
}

func NewQueueService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	queueRepo repos.QueueRepo,
	counterRepo repos.CounterRepo,
	logRepo repos.ActivityLogRepo,
) QueueService {
	return &queueService{
		db:          db,
		log:         log.With("service", "QueueService"),
		queueRepo:   queueRepo,
		counterRepo: counterRepo,
		logRepo:     logRepo,
		clock:       branchClock{branches: branchRepo, settings: settingRepo},
	}
}

func (qs *queueService) List(ctx context.Context, activeOnly bool) ([]*types.Queue, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return qs.queueRepo.ListByBranch(dbctx.Context{Ctx: ctx}, branchID, activeOnly)
}

func (qs *queueService) Get(ctx context.Context, id uuid.UUID) (*types.Queue, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return qs.get(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (qs *queueService) get(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Queue, error) {
	q, err := qs.queueRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	if q == nil {
		return nil, notFound("queue_not_found", "queue", id)
	}
	return q, nil
}

func (qs *queueService) Create(ctx context.Context, in QueueInput) (*types.Queue, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("missing_name", errors.New("queue name is required"))
	}
	prefix, err := validPrefix(in.Prefix)
	if err != nil {
		return nil, err
	}
	menu, err := normalizeMenu(in.Menu)
	if err != nil {
		return nil, err
	}
	q := &types.Queue{
		BranchID:    branchID,
		Name:        name,
		Prefix:      prefix,
		Description: strings.TrimSpace(in.Description),
		Menu:        menu,
		Position:    in.Position,
		Active:      true,
	}
	err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		bd, err := qs.clock.resolve(dbc, branchID, timeNow())
		if err != nil {
			return err
		}
		if err := requireKind(bd.Branch, types.KindBank); err != nil {
			return err
		}
		if err := qs.prefixFree(dbc, branchID, prefix, uuid.Nil); err != nil {
			return err
		}
		if err := qs.queueRepo.Create(dbc, q); err != nil {
			return fmt.Errorf("create queue: %w", err)
		}
		if in.Active != nil && !*in.Active {
			if err := qs.queueRepo.Update(dbc, branchID, q.ID, map[string]any{"active": false}); err != nil {
				return err
			}
			q.Active = false
		}
		return qs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityQueue, q.ID, "created", bd.Day, map[string]any{"name": name, "prefix": prefix}),
		})
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (qs *queueService) Update(ctx context.Context, id uuid.UUID, in QueueUpdate) (*types.Queue, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("missing_name", errors.New("queue name cannot be empty"))
		}
		updates["name"] = name
	}
	if in.Prefix != nil {
		prefix, err := validPrefix(*in.Prefix)
		if err != nil {
			return nil, err
		}
		updates["prefix"] = prefix
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Menu != nil {
		menu, err := normalizeMenu(*in.Menu)
		if err != nil {
			return nil, err
		}
		updates["menu"] = menu
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var out *types.Queue
	err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := qs.get(dbc, branchID, id); err != nil {
			return err
		}
		if p, ok := updates["prefix"].(string); ok {
			if err := qs.prefixFree(dbc, branchID, p, id); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := qs.queueRepo.Update(dbc, branchID, id, updates); err != nil {
				return fmt.Errorf("update queue: %w", err)
			}
		}
		if err := qs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityQueue, id, "updated", "", mapKeys(updates)),
		}); err != nil {
			return err
		}
		out, err = qs.get(dbc, branchID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (qs *queueService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return err
	}
	return qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		q, err := qs.get(dbc, branchID, id)
		if err != nil {
			return err
		}
		n, err := qs.counterRepo.CountByLine(dbc, id)
		if err != nil {
			return fmt.Errorf("count counters: %w", err)
		}
		if n > 0 {
			return apierr.Conflict("queue_in_use", fmt.Errorf("queue is served by %d counters", n))
		}
		if err := qs.queueRepo.Delete(dbc, branchID, id); err != nil {
			return fmt.Errorf("delete queue: %w", err)
		}
		return qs.logRepo.Create(dbc, []*types.ActivityLog{
			activity(branchID, rd.UserID, audit.EntityQueue, id, "deleted", "", map[string]any{"name": q.Name}),
		})
	})
}

// prefixFree rejects a prefix another live queue of the branch already uses.
func (qs *queueService) prefixFree(dbc dbctx.Context, branchID uuid.UUID, prefix string, self uuid.UUID) error {
	other, err := qs.queueRepo.GetByPrefix(dbc, branchID, prefix)
	if err != nil {
		return fmt.Errorf("check prefix: %w", err)
	}
	if other != nil && other.ID != self {
		return errPrefixInUse(prefix, other.Name)
	}
	return nil
}

func errPrefixInUse(prefix, owner string) error {
	return apierr.Conflict("prefix_in_use", fmt.Errorf("prefix %s is already used by %s", prefix, owner))
}

// validPrefix accepts one to three letters.
func validPrefix(raw string) (string, error) {
	p := queueing.NormalizePrefix(raw)
	if len(p) == 0 || len(p) > 3 {
		return "", apierr.BadRequest("invalid_prefix", errors.New("prefix must be one to three letters"))
	}
	for _, r := range p {
		if r < 'A' || r > 'Z' {
			return "", apierr.BadRequest("invalid_prefix", errors.New("prefix must be one to three letters"))
		}
	}
	return p, nil
}

func normalizeMenu(in []types.MenuItem) (datatypes.JSONSlice[types.MenuItem], error) {
	out := make(datatypes.JSONSlice[types.MenuItem], 0, len(in))
	seen := map[string]bool{}
	for _, it := range in {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_menu", errors.New("menu item name is required"))
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, apierr.BadRequest("invalid_menu", fmt.Errorf("duplicate menu item %q", name))
		}
		seen[key] = true
		subs := make([]string, 0, len(it.SubItems))
		for _, s := range it.SubItems {
			if s = strings.TrimSpace(s); s != "" {
				subs = append(subs, s)
			}
		}
		out = append(out, types.MenuItem{Name: name, SubItems: subs})
	}
	return out, nil
}
