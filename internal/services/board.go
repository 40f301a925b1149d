package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

// BoardCounter is one row of the "now serving" panel.
type BoardCounter struct {
	CounterID uuid.UUID     `json:"counter_id"`
	Name      string        `json:"name"`
	LineID    uuid.UUID     `json:"line_id"`
	Serving   *types.Ticket `json:"serving,omitempty"`
}

// BoardLine is a queue (bank) or department (hospital) with its next waiting tickets.
type BoardLine struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Prefix  string          `json:"prefix"`
	Waiting []*types.Ticket `json:"waiting"`
}

type BoardSnapshot struct {
	Branch      *types.Branch  `json:"branch"`
	Setting     *types.Setting `json:"setting"`
	Day         string         `json:"day"`
	Counters    []BoardCounter `json:"counters"`
	Lines       []BoardLine    `json:"lines"`
	Ads         []*types.Ad    `json:"ads"`
	Events      []*types.Event `json:"events"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type BoardService interface {
	Snapshot(ctx context.Context) (*BoardSnapshot, error)
}

type boardService struct {
	log            *logger.Logger
	clock          branchClock
	counterRepo    repos.CounterRepo
	queueRepo      repos.QueueRepo
	departmentRepo repos.DepartmentRepo
	ticketRepo     repos.TicketRepo
	adRepo         repos.AdRepo
	eventRepo      repos.EventRepo
	now            func() time.Time
}

func NewBoardService(
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	counterRepo repos.CounterRepo,
	queueRepo repos.QueueRepo,
	departmentRepo repos.DepartmentRepo,
	ticketRepo repos.TicketRepo,
	adRepo repos.AdRepo,
	eventRepo repos.EventRepo,
) BoardService {
	return &boardService{
		log:            log.With("service", "BoardService"),
		clock:          branchClock{branches: branchRepo, settings: settingRepo},
		counterRepo:    counterRepo,
		queueRepo:      queueRepo,
		departmentRepo: departmentRepo,
		ticketRepo:     ticketRepo,
		adRepo:         adRepo,
		eventRepo:      eventRepo,
		now:            time.Now,
	}
}

func (bs *boardService) Snapshot(ctx context.Context) (*BoardSnapshot, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	now := bs.now().UTC()
	bd, err := bs.clock.resolve(dbc, branchID, now)
	if err != nil {
		return nil, err
	}
	rows := 8
	showPII := false
	if bd.Setting != nil {
		if bd.Setting.BoardWaitingRows > 0 {
			rows = bd.Setting.BoardWaitingRows
		}
		showPII = bd.Setting.ShowCustomerNames
	}

	snap := &BoardSnapshot{
		Branch:      bd.Branch,
		Setting:     bd.Setting,
		Day:         bd.Day,
		Counters:    []BoardCounter{},
		Lines:       []BoardLine{},
		GeneratedAt: now,
	}

	lines, err := bs.lines(dbc, bd.Branch)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		sel := repos.TicketLine{Day: bd.Day}
		id := l.ID
		if bd.Branch.Kind == types.KindBank {
			sel.QueueID = &id
		} else {
			sel.DepartmentID = &id
		}
		waiting, err := bs.callable(dbc, branchID, sel, rows)
		if err != nil {
			return nil, fmt.Errorf("load waiting for %s: %w", l.Name, err)
		}
		for i, t := range waiting {
			waiting[i] = boardTicket(t, showPII)
		}
		l.Waiting = waiting
		snap.Lines = append(snap.Lines, l)
	}

	counters, err := bs.counterRepo.ListByBranch(dbc, branchID)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	serving, err := bs.ticketRepo.ServingByBranch(dbc, branchID, bd.Day)
	if err != nil {
		return nil, fmt.Errorf("load serving tickets: %w", err)
	}
	byCounter := make(map[uuid.UUID]*types.Ticket, len(serving))
	for _, t := range serving {
		if t.CounterID != nil {
			byCounter[*t.CounterID] = t
		}
	}
	for _, c := range counters {
		if !c.Active {
			continue
		}
		row := BoardCounter{CounterID: c.ID, Name: c.Name}
		switch {
		case c.QueueID != nil:
			row.LineID = *c.QueueID
		case c.DepartmentID != nil:
			row.LineID = *c.DepartmentID
		}
		if t := byCounter[c.ID]; t != nil {
			row.Serving = boardTicket(t, showPII)
		}
		snap.Counters = append(snap.Counters, row)
	}
	sort.SliceStable(snap.Counters, func(i, j int) bool { return snap.Counters[i].Name < snap.Counters[j].Name })

	if snap.Ads, err = bs.adRepo.ListByBranch(dbc, branchID, true); err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}
	if snap.Events, err = bs.eventRepo.ListLive(dbc, branchID, now); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return snap, nil
}

// callable returns up to rows waiting tickets of a line that a counter could
// call now. Patients held for payment are skipped.
func (bs *boardService) callable(dbc dbctx.Context, branchID uuid.UUID, sel repos.TicketLine, rows int) ([]*types.Ticket, error) {
	out := make([]*types.Ticket, 0, rows)
	for offset := 0; len(out) < rows; offset += rows {
		page, err := bs.ticketRepo.Waiting(dbc, branchID, sel, rows, offset)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			if t.Callable() && len(out) < rows {
				out = append(out, t)
			}
		}
		if len(page) < rows {
			break
		}
	}
	return out, nil
}

// lines lists the active lines of a branch in display order.
func (bs *boardService) lines(dbc dbctx.Context, b *types.Branch) ([]BoardLine, error) {
	var out []BoardLine
	if b.Kind == types.KindBank {
		qs, err := bs.queueRepo.ListByBranch(dbc, b.ID, true)
		if err != nil {
			return nil, fmt.Errorf("load queues: %w", err)
		}
		for _, q := range qs {
			out = append(out, BoardLine{ID: q.ID, Name: q.Name, Prefix: q.Prefix})
		}
		return out, nil
	}
	ds, err := bs.departmentRepo.ListByBranch(dbc, b.ID, true)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	for _, d := range ds {
		out = append(out, BoardLine{ID: d.ID, Name: d.Name, Prefix: d.Prefix})
	}
	return out, nil
}
