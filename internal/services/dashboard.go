package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

const dashboardConcurrency = 4

// LineSummary is one queue's or department's numbers for a day.
// Waiting time counts only tickets that were called; serve time only served ones.
type LineSummary struct {
	ID          uuid.UUID                    `json:"id"`
	Name        string                       `json:"name"`
	Counts      map[types.TicketStatus]int64 `json:"counts"`
	Total       int64                        `json:"total"`
	AvgWaitSec  float64                      `json:"avg_wait_sec"`
	AvgServeSec float64                      `json:"avg_serve_sec"`
	AvgHoldSec  float64                      `json:"avg_hold_sec"`

	waitSum, serveSum, holdSum float64
	called, served             int64
}

type DashboardStats struct {
	Day    string        `json:"day"`
	Kind   string        `json:"kind"`
	Lines  []LineSummary `json:"lines"`
	Totals LineSummary   `json:"totals"`
}

type DashboardService interface {
	Stats(ctx context.Context, day string) (*DashboardStats, error)
}

type dashboardService struct {
	log            *logger.Logger
	clock          branchClock
	queueRepo      repos.QueueRepo
	departmentRepo repos.DepartmentRepo
	ticketRepo     repos.TicketRepo
	now            func() time.Time
}

func NewDashboardService(
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	queueRepo repos.QueueRepo,
	departmentRepo repos.DepartmentRepo,
	ticketRepo repos.TicketRepo,
) DashboardService {
	return &dashboardService{
		log:            log.With("service", "DashboardService"),
		clock:          branchClock{branches: branchRepo, settings: settingRepo},
		queueRepo:      queueRepo,
		departmentRepo: departmentRepo,
		ticketRepo:     ticketRepo,
		now:            time.Now,
	}
}

func newSummary(id uuid.UUID, name string) LineSummary {
	return LineSummary{
		ID:   id,
		Name: name,
		Counts: map[types.TicketStatus]int64{
			types.StatusNotServed: 0,
			types.StatusServing:   0,
			types.StatusHold:      0,
			types.StatusServed:    0,
		},
	}
}

func (s *LineSummary) add(rows []repos.TicketStatusStats) {
	for _, r := range rows {
		s.Counts[r.Status] += r.Count
		s.Total += r.Count
		if r.Status == types.StatusNotServed {
			continue
		}
		n := float64(r.Count)
		s.called += r.Count
		s.waitSum += r.AvgWaitMs * n
		s.holdSum += r.AvgHoldMs * n
		if r.Status == types.StatusServed {
			s.served += r.Count
			s.serveSum += r.AvgServeMs * n
		}
	}
}

func (s *LineSummary) merge(o LineSummary) {
	for k, v := range o.Counts {
		s.Counts[k] += v
	}
	s.Total += o.Total
	s.called += o.called
	s.served += o.served
	s.waitSum += o.waitSum
	s.serveSum += o.serveSum
	s.holdSum += o.holdSum
}

func (s *LineSummary) finish() {
	if s.called > 0 {
		s.AvgWaitSec = seconds(s.waitSum / float64(s.called))
		s.AvgHoldSec = seconds(s.holdSum / float64(s.called))
	}
	if s.served > 0 {
		s.AvgServeSec = seconds(s.serveSum / float64(s.served))
	}
}

func seconds(ms float64) float64 {
	return math.Round(ms/10) / 100
}

func (ds *dashboardService) Stats(ctx context.Context, day string) (*DashboardStats, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	bd, err := ds.clock.resolve(dbc, branchID, ds.now())
	if err != nil {
		return nil, err
	}
	if day, err = dayOrToday(day, bd.Day); err != nil {
		return nil, err
	}

	type lineRef struct {
		summary LineSummary
		line    repos.TicketLine
	}
	var refs []*lineRef
	if bd.Branch.Kind == types.KindBank {
		qs, err := ds.queueRepo.ListByBranch(dbc, branchID, false)
		if err != nil {
			return nil, fmt.Errorf("load queues: %w", err)
		}
		for _, q := range qs {
			id := q.ID
			refs = append(refs, &lineRef{summary: newSummary(q.ID, q.Name), line: repos.TicketLine{QueueID: &id}})
		}
	} else {
		deps, err := ds.departmentRepo.ListByBranch(dbc, branchID, false)
		if err != nil {
			return nil, fmt.Errorf("load departments: %w", err)
		}
		for _, d := range deps {
			id := d.ID
			refs = append(refs, &lineRef{summary: newSummary(d.ID, d.Name), line: repos.TicketLine{DepartmentID: &id}})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			rows, err := ds.ticketRepo.LineStats(dbctx.Context{Ctx: gctx}, branchID, day, ref.line)
			if err != nil {
				return fmt.Errorf("stats for %s: %w", ref.summary.Name, err)
			}
			ref.summary.add(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &DashboardStats{
		Day:    day,
		Kind:   string(bd.Branch.Kind),
		Lines:  make([]LineSummary, 0, len(refs)),
		Totals: newSummary(uuid.Nil, "total"),
	}
	for _, ref := range refs {
		ref.summary.finish()
		out.Totals.merge(ref.summary)
		out.Lines = append(out.Lines, ref.summary)
	}
	out.Totals.finish()
	return out, nil
}
