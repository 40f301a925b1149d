package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/ticket"
	"github.com/yungbote/queueflow-backend/internal/observability"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/realtime"
	"github.com/yungbote/queueflow-backend/internal/realtime/bus"
)

const (
	defaultTicketWriteAttempts = 3
	waitingPageSize            = 25
	pendingPaymentsLimit       = 500
)

type IssueInput struct {
	QueueID       *uuid.UUID `json:"queue_id"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	Issue         string     `json:"issue"`
	SubIssue      string     `json:"sub_issue"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
}

// TicketQuery filters ticket listings. Day defaults to today; "all" disables it.
type TicketQuery struct {
	Status       string
	QueueID      *uuid.UUID
	DepartmentID *uuid.UUID
	CounterID    *uuid.UUID
	Day          string
	Limit        int
	Offset       int
}

type StatusInput struct {
	Status    string     `json:"status"`
	CounterID *uuid.UUID `json:"counter_id"`
}

type TransferInput struct {
	QueueID uuid.UUID `json:"queue_id"`
}

type NextStepInput struct {
	DepartmentID    uuid.UUID `json:"department_id"`
	PaymentRequired *bool     `json:"payment_required"`
}

// TicketEvent is the payload of every ticket SSE message.
type TicketEvent struct {
	Ticket      *types.Ticket      `json:"ticket"`
	From        types.TicketStatus `json:"from,omitempty"`
	CounterName string             `json:"counter_name,omitempty"`
}

type TicketService interface {
	Issue(ctx context.Context, in IssueInput) (*types.Ticket, error)
	List(ctx context.Context, q TicketQuery) ([]*types.Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Ticket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*types.Ticket, error)
	// CallNext serves the oldest callable ticket of the counter's line. At a
	// bank counter the ticket currently being served is marked served first.
	CallNext(ctx context.Context, counterID uuid.UUID) (*types.Ticket, error)
	Recall(ctx context.Context, id uuid.UUID) (*types.Ticket, error)
	Transfer(ctx context.Context, id uuid.UUID, in TransferInput) (*types.Ticket, error)
	NextStep(ctx context.Context, id uuid.UUID, in NextStepInput) (*types.Ticket, error)
	Clear(ctx context.Context, id uuid.UUID) (*types.Ticket, error)
	ClearPayment(ctx context.Context, id uuid.UUID) (*types.Ticket, error)
	PendingPayments(ctx context.Context) ([]*types.Ticket, error)
}

type ticketService struct {
	db             *gorm.DB
	log            *logger.Logger
	ticketRepo     repos.TicketRepo
	sequenceRepo   repos.SequenceRepo
	queueRepo      repos.QueueRepo
	departmentRepo repos.DepartmentRepo
	counterRepo    repos.CounterRepo
	assignmentRepo repos.AssignmentRepo
	logRepo        repos.ActivityLogRepo
	clock          branchClock
	events         bus.Publisher
	now            func() time.Time
	attempts       int
}

func NewTicketService(
	db *gorm.DB,
	log *logger.Logger,
	branchRepo repos.BranchRepo,
	settingRepo repos.SettingRepo,
	queueRepo repos.QueueRepo,
	departmentRepo repos.DepartmentRepo,
	counterRepo repos.CounterRepo,
	assignmentRepo repos.AssignmentRepo,
	sequenceRepo repos.SequenceRepo,
	ticketRepo repos.TicketRepo,
	logRepo repos.ActivityLogRepo,
	events bus.Publisher,
) TicketService {
	return &ticketService{
		db:             db,
		log:            log.With("service", "TicketService"),
		ticketRepo:     ticketRepo,
		sequenceRepo:   sequenceRepo,
		queueRepo:      queueRepo,
		departmentRepo: departmentRepo,
		counterRepo:    counterRepo,
		assignmentRepo: assignmentRepo,
		logRepo:        logRepo,
		clock:          branchClock{branches: branchRepo, settings: settingRepo},
		events:         events,
		now:            time.Now,
		attempts:       defaultTicketWriteAttempts,
	}
}

// ticketEnv is what one attempt of a ticket write sees.
type ticketEnv struct {
	rd      *ctxutil.RequestData
	branch  *types.Branch
	setting *types.Setting
	day     string
	now     time.Time
}

// change is one ticket touched by a committed write.
type change struct {
	ticket      *types.Ticket
	from        types.TicketStatus
	event       realtime.SSEEvent
	action      string
	counterName string
	detail      map[string]any
}

func (c change) logDetail() map[string]any {
	d := map[string]any{"number": c.ticket.Number, "status": string(c.ticket.Status)}
	if c.from != "" && c.from != c.ticket.Status {
		d["from"] = string(c.from)
	}
	if c.counterName != "" {
		d["counter"] = c.counterName
	}
	for k, v := range c.detail {
		d[k] = v
	}
	return d
}

func isWriteRace(err error) bool {
	return errors.Is(err, repos.ErrStaleVersion) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// commit runs op in a transaction and retries it when another writer got
// to the same ticket first. Events go out only after the commit.
func (ts *ticketService) commit(ctx context.Context, name string, op func(dbc dbctx.Context, env *ticketEnv) ([]change, error)) ([]change, error) {
	rd, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "ticket."+name,
		attribute.String("branch_id", branchID.String()),
	)
	defer span.End()

	var (
		changes []change
		showPII bool
	)
	for attempt := 1; ; attempt++ {
		err = ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			now := ts.now().UTC()
			bd, err := ts.clock.resolve(dbc, branchID, now)
			if err != nil {
				return err
			}
			env := &ticketEnv{rd: rd, branch: bd.Branch, setting: bd.Setting, day: bd.Day, now: now}
			out, err := op(dbc, env)
			if err != nil {
				return err
			}
			logs := make([]*types.ActivityLog, 0, len(out))
			for _, c := range out {
				logs = append(logs, activity(branchID, rd.UserID, audit.EntityTicket, c.ticket.ID, c.action, c.ticket.Day, c.logDetail()))
			}
			if err := ts.logRepo.Create(dbc, logs); err != nil {
				return fmt.Errorf("write activity: %w", err)
			}
			changes = out
			showPII = bd.Setting != nil && bd.Setting.ShowCustomerNames
			return nil
		})
		if err == nil || !isWriteRace(err) {
			break
		}
		if attempt >= ts.attempts {
			observability.RecordTicketConflict("exhausted")
			span.RecordError(err)
			return nil, apierr.Conflict("ticket_conflict", fmt.Errorf("%s: %w", name, err))
		}
		observability.RecordTicketConflict("retried")
		ts.log.Debug("ticket write lost a race; retrying", "op", name, "attempt", attempt)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, c := range changes {
		ts.afterCommit(ctx, branchID, c, showPII)
	}
	return changes, nil
}

func (ts *ticketService) afterCommit(ctx context.Context, branchID uuid.UUID, c change, showPII bool) {
	kind := string(c.ticket.Kind)
	switch {
	case c.from == "":
		observability.RecordTicketIssued(kind)
	case c.from != c.ticket.Status:
		observability.RecordTicketTransition(kind, string(c.from), string(c.ticket.Status))
		if c.from == types.StatusNotServed && c.ticket.Status == types.StatusServing {
			observability.RecordTicketWait(kind, c.ticket.WaitMs)
		}
	}
	if ts.events == nil {
		return
	}
	ts.events.Publish(ctx, realtime.SSEMessage{
		Channel: realtime.BranchChannel(branchID),
		Event:   c.event,
		Data:    TicketEvent{Ticket: boardTicket(c.ticket, showPII), From: c.from, CounterName: c.counterName},
	})
}

// boardTicket strips customer details from tickets going to public screens.
func boardTicket(t *types.Ticket, showPII bool) *types.Ticket {
	if showPII || (t.CustomerName == "" && t.CustomerPhone == "") {
		return t
	}
	cp := *t
	cp.CustomerName = ""
	cp.CustomerPhone = ""
	return &cp
}

// mutate loads one ticket, applies fn and writes it back under its version.
func (ts *ticketService) mutate(
	ctx context.Context,
	name string,
	id uuid.UUID,
	fn func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error),
) (*types.Ticket, error) {
	changes, err := ts.commit(ctx, name, func(dbc dbctx.Context, env *ticketEnv) ([]change, error) {
		t, err := ts.load(dbc, env.branch.ID, id)
		if err != nil {
			return nil, err
		}
		from := t.Status
		c, err := fn(dbc, env, t)
		if err != nil {
			return nil, err
		}
		if err := ts.ticketRepo.UpdateVersioned(dbc, t); err != nil {
			return nil, err
		}
		c.ticket, c.from = t, from
		if c.action == "" {
			c.action = name
		}
		return []change{c}, nil
	})
	if err != nil {
		return nil, err
	}
	return changes[0].ticket, nil
}

func (ts *ticketService) load(dbc dbctx.Context, branchID, id uuid.UUID) (*types.Ticket, error) {
	t, err := ts.ticketRepo.GetByID(dbc, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if t == nil {
		return nil, notFound("ticket_not_found", "ticket", id)
	}
	return t, nil
}

func (ts *ticketService) Issue(ctx context.Context, in IssueInput) (*types.Ticket, error) {
	changes, err := ts.commit(ctx, "issued", func(dbc dbctx.Context, env *ticketEnv) ([]change, error) {
		var (
			t      *types.Ticket
			detail map[string]any
		)
		switch env.branch.Kind {
		case types.KindBank:
			if in.QueueID == nil {
				return nil, apierr.BadRequest("missing_queue", errors.New("queue_id is required"))
			}
			q, err := ts.queueRepo.GetByID(dbc, env.branch.ID, *in.QueueID)
			if err != nil {
				return nil, fmt.Errorf("load queue: %w", err)
			}
			if q == nil {
				return nil, notFound("queue_not_found", "queue", *in.QueueID)
			}
			if !q.Active {
				return nil, apierr.BadRequest("queue_inactive", fmt.Errorf("queue %s is not active", q.Name))
			}
			issue, sub := strings.TrimSpace(in.Issue), strings.TrimSpace(in.SubIssue)
			if !q.ValidIssue(issue, sub) {
				return nil, apierr.BadRequest("invalid_issue", fmt.Errorf("%q is not on the %s menu", issue, q.Name))
			}
			seq, err := ts.sequenceRepo.Next(dbc, env.branch.ID, q.Prefix, env.day)
			if err != nil {
				return nil, fmt.Errorf("next sequence: %w", err)
			}
			t = ticket.NewBank(env.branch.ID, q.ID, env.day, ticket.FormatNumber(q.Prefix, seq), seq, env.now)
			t.Issue, t.SubIssue = issue, sub
			detail = map[string]any{"queue": q.Name}
		case types.KindHospital:
			d, err := ts.destination(dbc, env.branch.ID, in.DepartmentID)
			if err != nil {
				return nil, err
			}
			seq, err := ts.sequenceRepo.Next(dbc, env.branch.ID, d.Prefix, env.day)
			if err != nil {
				return nil, fmt.Errorf("next sequence: %w", err)
			}
			t = ticket.NewHospital(env.branch.ID, ticket.Destination{
				DepartmentID:    d.ID,
				DepartmentName:  d.Name,
				PaymentRequired: d.RequiresPayment,
			}, env.day, ticket.FormatNumber(d.Prefix, seq), seq, env.now)
			detail = map[string]any{"department": d.Name}
		default:
			return nil, apierr.BadRequest("wrong_branch_kind", fmt.Errorf("unknown branch kind %q", env.branch.Kind))
		}
		t.CustomerName = strings.TrimSpace(in.CustomerName)
		t.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
		if err := ts.ticketRepo.Create(dbc, t); err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		return []change{{ticket: t, event: realtime.SSEEventTicketIssued, action: "issued", detail: detail}}, nil
	})
	if err != nil {
		return nil, err
	}
	return changes[0].ticket, nil
}

// destination resolves the department a hospital ticket enters, defaulting to intake.
func (ts *ticketService) destination(dbc dbctx.Context, branchID uuid.UUID, id *uuid.UUID) (*types.Department, error) {
	var (
		d   *types.Department
		err error
	)
	if id != nil {
		d, err = ts.departmentRepo.GetByID(dbc, branchID, *id)
		if err != nil {
			return nil, fmt.Errorf("load department: %w", err)
		}
		if d == nil {
			return nil, notFound("department_not_found", "department", *id)
		}
	} else {
		d, err = ts.departmentRepo.GetIntake(dbc, branchID)
		if err != nil {
			return nil, fmt.Errorf("load intake: %w", err)
		}
		if d == nil {
			return nil, apierr.BadRequest("no_intake_department", errors.New("branch has no intake department; pass department_id"))
		}
	}
	if !d.Active {
		return nil, apierr.BadRequest("department_inactive", fmt.Errorf("department %s is not active", d.Name))
	}
	return d, nil
}

func (ts *ticketService) List(ctx context.Context, q TicketQuery) ([]*types.Ticket, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	f := repos.TicketFilter{
		QueueID:      q.QueueID,
		DepartmentID: q.DepartmentID,
		CounterID:    q.CounterID,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Status != "" {
		s, ok := ticket.ParseStatus(q.Status)
		if !ok {
			return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", q.Status))
		}
		f.Status = s
	}
	switch day := strings.TrimSpace(q.Day); day {
	case "all":
	case "":
		bd, err := ts.clock.resolve(dbc, branchID, ts.now())
		if err != nil {
			return nil, err
		}
		f.Day = bd.Day
	default:
		if _, err := time.Parse(dayLayout, day); err != nil {
			return nil, apierr.BadRequest("invalid_day", fmt.Errorf("day must be YYYY-MM-DD"))
		}
		f.Day = day
	}
	return ts.ticketRepo.List(dbc, branchID, f)
}

func (ts *ticketService) Get(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	return ts.load(dbctx.Context{Ctx: ctx}, branchID, id)
}

func (ts *ticketService) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*types.Ticket, error) {
	to, ok := ticket.ParseStatus(in.Status)
	if !ok {
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", in.Status))
	}
	return ts.mutate(ctx, "status_changed", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		c := change{event: realtime.SSEEventTicketStatusChanged}
		switch {
		case to == types.StatusServing && t.Status == types.StatusNotServed:
			if in.CounterID == nil {
				return c, apierr.BadRequest("missing_counter", errors.New("counter_id is required to serve a waiting ticket"))
			}
			counter, err := ts.requireAssignment(dbc, env, *in.CounterID)
			if err != nil {
				return c, err
			}
			if !onLine(counter, t) {
				return c, apierr.BadRequest("wrong_line", errors.New("ticket is not in this counter's line"))
			}
			if err := ts.requireIdle(dbc, counter.ID, t.ID); err != nil {
				return c, err
			}
			if err := t.Call(counter.ID, env.rd.UserID, env.now); err != nil {
				return c, err
			}
			c.event, c.action, c.counterName = realtime.SSEEventTicketCalled, "called", counter.Name
			return c, nil
		case to == types.StatusServing && t.Status == types.StatusHold && t.CounterID != nil:
			if err := ts.requireIdle(dbc, *t.CounterID, t.ID); err != nil {
				return c, err
			}
		}
		if err := t.Transition(to, env.now); err != nil {
			return c, err
		}
		return c, nil
	})
}

func (ts *ticketService) CallNext(ctx context.Context, counterID uuid.UUID) (*types.Ticket, error) {
	changes, err := ts.commit(ctx, "called", func(dbc dbctx.Context, env *ticketEnv) ([]change, error) {
		counter, err := ts.requireAssignment(dbc, env, counterID)
		if err != nil {
			return nil, err
		}
		var out []change
		current, err := ts.ticketRepo.ServingAtCounter(dbc, counter.ID)
		if err != nil {
			return nil, fmt.Errorf("load serving ticket: %w", err)
		}
		if current != nil {
			if env.branch.Kind == types.KindHospital {
				return nil, fmt.Errorf("%w: %s is serving %s", ticket.ErrRoomBusy, counter.Name, current.Number)
			}
			if err := current.Transition(types.StatusServed, env.now); err != nil {
				return nil, err
			}
			if err := ts.ticketRepo.UpdateVersioned(dbc, current); err != nil {
				return nil, err
			}
			out = append(out, change{
				ticket:      current,
				from:        types.StatusServing,
				event:       realtime.SSEEventTicketStatusChanged,
				action:      "status_changed",
				counterName: counter.Name,
			})
		}

		next, err := ts.nextCallable(dbc, env, counter)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return out, nil
		}
		from := next.Status
		if err := next.Call(counter.ID, env.rd.UserID, env.now); err != nil {
			return nil, err
		}
		if err := ts.ticketRepo.UpdateVersioned(dbc, next); err != nil {
			return nil, err
		}
		return append(out, change{
			ticket:      next,
			from:        from,
			event:       realtime.SSEEventTicketCalled,
			action:      "called",
			counterName: counter.Name,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		if c.event == realtime.SSEEventTicketCalled {
			return c.ticket, nil
		}
	}
	return nil, apierr.NotFound("queue_empty", errors.New("no tickets are waiting"))
}

// nextCallable walks the counter's line oldest first, skipping tickets held
// back by an uncleared payment.
func (ts *ticketService) nextCallable(dbc dbctx.Context, env *ticketEnv, counter *types.Counter) (*types.Ticket, error) {
	line := repos.TicketLine{QueueID: counter.QueueID, DepartmentID: counter.DepartmentID, Day: env.day}
	for offset := 0; ; offset += waitingPageSize {
		page, err := ts.ticketRepo.Waiting(dbc, env.branch.ID, line, waitingPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("load waiting tickets: %w", err)
		}
		for _, t := range page {
			if t.Callable() {
				return t, nil
			}
		}
		if len(page) < waitingPageSize {
			return nil, nil
		}
	}
}

// requireAssignment loads an active counter the caller is assigned to today.
func (ts *ticketService) requireAssignment(dbc dbctx.Context, env *ticketEnv, counterID uuid.UUID) (*types.Counter, error) {
	c, err := ts.counterRepo.GetByID(dbc, env.branch.ID, counterID)
	if err != nil {
		return nil, fmt.Errorf("load counter: %w", err)
	}
	if c == nil {
		return nil, notFound("counter_not_found", "counter", counterID)
	}
	if !c.Active {
		return nil, apierr.BadRequest("counter_inactive", fmt.Errorf("counter %s is not active", c.Name))
	}
	a, err := ts.assignmentRepo.GetForCounter(dbc, c.ID, env.day)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a == nil || a.UserID != env.rd.UserID {
		return nil, apierr.Forbidden("not_assigned", fmt.Errorf("you are not assigned to %s today", c.Name))
	}
	return c, nil
}

func (ts *ticketService) requireIdle(dbc dbctx.Context, counterID, except uuid.UUID) error {
	cur, err := ts.ticketRepo.ServingAtCounter(dbc, counterID)
	if err != nil {
		return fmt.Errorf("load serving ticket: %w", err)
	}
	if cur != nil && cur.ID != except {
		return fmt.Errorf("%w: serving %s", ticket.ErrRoomBusy, cur.Number)
	}
	return nil
}

func onLine(c *types.Counter, t *types.Ticket) bool {
	if c.QueueID != nil {
		return t.QueueID != nil && *t.QueueID == *c.QueueID
	}
	return c.DepartmentID != nil && t.DepartmentID != nil && *t.DepartmentID == *c.DepartmentID
}

func (ts *ticketService) Recall(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
	return ts.mutate(ctx, "recalled", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		if err := t.Recall(); err != nil {
			return change{}, err
		}
		return change{event: realtime.SSEEventTicketRecalled, detail: map[string]any{"recall_count": t.RecallCount}}, nil
	})
}

func (ts *ticketService) Transfer(ctx context.Context, id uuid.UUID, in TransferInput) (*types.Ticket, error) {
	return ts.mutate(ctx, "transferred", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		if err := requireKind(env.branch, types.KindBank); err != nil {
			return change{}, err
		}
		q, err := ts.queueRepo.GetByID(dbc, env.branch.ID, in.QueueID)
		if err != nil {
			return change{}, fmt.Errorf("load queue: %w", err)
		}
		if q == nil {
			return change{}, notFound("queue_not_found", "queue", in.QueueID)
		}
		if !q.Active {
			return change{}, apierr.BadRequest("queue_inactive", fmt.Errorf("queue %s is not active", q.Name))
		}
		var fromQueue string
		if t.QueueID != nil {
			fromQueue = t.QueueID.String()
		}
		if err := t.Transfer(q.ID, env.now); err != nil {
			return change{}, err
		}
		return change{
			event:  realtime.SSEEventTicketTransferred,
			detail: map[string]any{"from_queue": fromQueue, "to_queue": q.ID.String(), "queue": q.Name},
		}, nil
	})
}

func (ts *ticketService) NextStep(ctx context.Context, id uuid.UUID, in NextStepInput) (*types.Ticket, error) {
	return ts.mutate(ctx, "routed", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		if err := requireKind(env.branch, types.KindHospital); err != nil {
			return change{}, err
		}
		d, err := ts.destination(dbc, env.branch.ID, &in.DepartmentID)
		if err != nil {
			return change{}, err
		}
		payment := d.RequiresPayment
		if in.PaymentRequired != nil {
			payment = *in.PaymentRequired
		}
		if err := t.RouteTo(ticket.Destination{
			DepartmentID:    d.ID,
			DepartmentName:  d.Name,
			PaymentRequired: payment,
		}, env.now); err != nil {
			return change{}, err
		}
		return change{
			event:  realtime.SSEEventTicketRouted,
			detail: map[string]any{"department": d.Name, "payment_required": payment},
		}, nil
	})
}

func (ts *ticketService) Clear(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
	return ts.mutate(ctx, "cleared", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		if err := requireKind(env.branch, types.KindHospital); err != nil {
			return change{}, err
		}
		if err := t.Clear(env.now); err != nil {
			return change{}, err
		}
		return change{event: realtime.SSEEventTicketCleared}, nil
	})
}

func (ts *ticketService) ClearPayment(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
	return ts.mutate(ctx, "payment_cleared", id, func(dbc dbctx.Context, env *ticketEnv, t *types.Ticket) (change, error) {
		if err := requireKind(env.branch, types.KindHospital); err != nil {
			return change{}, err
		}
		if err := t.ClearPayment(env.rd.UserID, env.now); err != nil {
			return change{}, err
		}
		var dept string
		if v := t.CurrentVisit(); v != nil {
			dept = v.DepartmentName
		}
		return change{event: realtime.SSEEventPaymentCleared, detail: map[string]any{"department": dept}}, nil
	})
}

// PendingPayments lists today's waiting tickets blocked on an uncleared payment.
func (ts *ticketService) PendingPayments(ctx context.Context) ([]*types.Ticket, error) {
	_, branchID, err := callerBranch(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	bd, err := ts.clock.resolve(dbc, branchID, ts.now())
	if err != nil {
		return nil, err
	}
	if err := requireKind(bd.Branch, types.KindHospital); err != nil {
		return nil, err
	}
	waiting, err := ts.ticketRepo.List(dbc, branchID, repos.TicketFilter{
		Status: types.StatusNotServed,
		Day:    bd.Day,
		Limit:  pendingPaymentsLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Ticket, 0, len(waiting))
	for _, t := range waiting {
		if t.AwaitingPayment() {
			out = append(out, t)
		}
	}
	return out, nil
}
