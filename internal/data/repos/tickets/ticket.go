package tickets

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

// ErrStaleVersion means the row changed since it was read.
var ErrStaleVersion = errors.New("ticket was modified concurrently")

// List returns DefaultListLimit rows when no limit is given and never more
// than MaxListLimit.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Filter narrows ticket listings; zero fields are ignored.
type Filter struct {
	Status       types.TicketStatus
	QueueID      *uuid.UUID
	DepartmentID *uuid.UUID
	CounterID    *uuid.UUID
	Day          string
	Limit        int
	Offset       int
}

// Line selects the waiting line of a counter: a bank queue or a hospital department.
// Day, when set, keeps earlier service days out of the line.
type Line struct {
	QueueID      *uuid.UUID
	DepartmentID *uuid.UUID
	Day          string
}

// StatusStats aggregates one status bucket of a line for a day.
type StatusStats struct {
	Status     types.TicketStatus `gorm:"column:status"`
	Count      int64              `gorm:"column:count"`
	AvgWaitMs  float64            `gorm:"column:avg_wait_ms"`
	AvgServeMs float64            `gorm:"column:avg_serve_ms"`
	AvgHoldMs  float64            `gorm:"column:avg_hold_ms"`
}

type TicketRepo interface {
	Create(dbc dbctx.Context, t *types.Ticket) error
	GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ticket, error)
	List(dbc dbctx.Context, branchID uuid.UUID, f Filter) ([]*types.Ticket, error)
	Waiting(dbc dbctx.Context, branchID uuid.UUID, line Line, limit, offset int) ([]*types.Ticket, error)
	ServingAtCounter(dbc dbctx.Context, counterID uuid.UUID) (*types.Ticket, error)
	ServingByBranch(dbc dbctx.Context, branchID uuid.UUID, day string) ([]*types.Ticket, error)
	UpdateVersioned(dbc dbctx.Context, t *types.Ticket) error
	LineStats(dbc dbctx.Context, branchID uuid.UUID, day string, line Line) ([]StatusStats, error)
	CountWaiting(dbc dbctx.Context, branchID uuid.UUID, day string) (int64, error)
}

type ticketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketRepo(db *gorm.DB, baseLog *logger.Logger) TicketRepo {
	repoLog := baseLog.With("repo", "TicketRepo")
	return &ticketRepo{db: db, log: repoLog}
}

func (r *ticketRepo) Create(dbc dbctx.Context, t *types.Ticket) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *ticketRepo) GetByID(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ticket, error) {
	var t types.Ticket
	err := dbc.DB(r.db).Where("branch_id = ? AND id = ?", branchID, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) List(dbc dbctx.Context, branchID uuid.UUID, f Filter) ([]*types.Ticket, error) {
	q := dbc.DB(r.db).Where("branch_id = ?", branchID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.QueueID != nil {
		q = q.Where("queue_id = ?", *f.QueueID)
	}
	if f.DepartmentID != nil {
		q = q.Where("department_id = ?", *f.DepartmentID)
	}
	if f.CounterID != nil {
		q = q.Where("counter_id = ?", *f.CounterID)
	}
	if f.Day != "" {
		q = q.Where("day = ?", f.Day)
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	var out []*types.Ticket
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Waiting returns not_served tickets of a line, oldest first.
func (r *ticketRepo) Waiting(dbc dbctx.Context, branchID uuid.UUID, line Line, limit, offset int) ([]*types.Ticket, error) {
	q := dbc.DB(r.db).Where("branch_id = ? AND status = ?", branchID, types.StatusNotServed)
	q = applyLine(q, line)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Ticket
	if err := q.Order("queued_at ASC, sequence ASC").Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ticketRepo) ServingAtCounter(dbc dbctx.Context, counterID uuid.UUID) (*types.Ticket, error) {
	var t types.Ticket
	err := dbc.DB(r.db).Where("counter_id = ? AND status = ?", counterID, types.StatusServing).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) ServingByBranch(dbc dbctx.Context, branchID uuid.UUID, day string) ([]*types.Ticket, error) {
	var out []*types.Ticket
	if err := dbc.DB(r.db).
		Where("branch_id = ? AND day = ? AND status = ?", branchID, day, types.StatusServing).
		Order("serving_started_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVersioned writes every column of t if its version is unchanged and
// bumps the version. A lost race returns ErrStaleVersion and leaves t as it was.
func (r *ticketRepo) UpdateVersioned(dbc dbctx.Context, t *types.Ticket) error {
	prev := t.Version
	prevUpdated := t.UpdatedAt
	t.Version = prev + 1
	t.UpdatedAt = time.Now().UTC()
	res := dbc.DB(r.db).
		Model(t).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at").
		Updates(t)
	if res.Error != nil || res.RowsAffected == 0 {
		t.Version = prev
		t.UpdatedAt = prevUpdated
		if res.Error != nil {
			return res.Error
		}
		return ErrStaleVersion
	}
	return nil
}

func (r *ticketRepo) LineStats(dbc dbctx.Context, branchID uuid.UUID, day string, line Line) ([]StatusStats, error) {
	q := dbc.DB(r.db).
		Model(&types.Ticket{}).
		Select("status, COUNT(*) AS count, AVG(wait_ms) AS avg_wait_ms, AVG(serve_ms) AS avg_serve_ms, AVG(hold_ms) AS avg_hold_ms").
		Where("branch_id = ? AND day = ?", branchID, day)
	q = applyLine(q, line)
	var out []StatusStats
	if err := q.Group("status").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ticketRepo) CountWaiting(dbc dbctx.Context, branchID uuid.UUID, day string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Ticket{}).
		Where("branch_id = ? AND day = ? AND status = ?", branchID, day, types.StatusNotServed).
		Count(&n).Error
	return n, err
}

func applyLine(q *gorm.DB, line Line) *gorm.DB {
	if line.QueueID != nil {
		q = q.Where("queue_id = ?", *line.QueueID)
	}
	if line.DepartmentID != nil {
		q = q.Where("department_id = ?", *line.DepartmentID)
	}
	if line.Day != "" {
		q = q.Where("day = ?", line.Day)
	}
	return q
}
