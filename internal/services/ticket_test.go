package services

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	"github.com/yungbote/queueflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/domain/audit"
	"github.com/yungbote/queueflow-backend/internal/domain/ticket"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/realtime"
)

func TestTicketServiceBankFlow(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	cash := testutil.SeedQueue(t, h.ctx, h.db, b.ID, "Cash", "A")
	teller := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "teller@bank.test")
	c1 := testutil.SeedCounter(t, h.ctx, h.db, b.ID, "Counter 1", &cash.ID, nil)
	testutil.SeedAssignment(t, h.ctx, h.db, c1, teller.ID, testDay)

	now := t0
	svc := h.ticketService(&now)
	ctx := h.as(teller)

	first, err := svc.Issue(ctx, IssueInput{QueueID: &cash.ID, CustomerName: " Ada "})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := svc.Issue(ctx, IssueInput{QueueID: &cash.ID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first.Number != "A001" || second.Number != "A002" {
		t.Fatalf("numbers: %s %s", first.Number, second.Number)
	}
	if first.Day != testDay || first.CustomerName != "Ada" {
		t.Fatalf("issued ticket wrong: %+v", first)
	}

	now = now.Add(2 * time.Minute)
	called, err := svc.CallNext(ctx, c1.ID)
	if err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if called.ID != first.ID || called.Status != types.StatusServing {
		t.Fatalf("expected %s serving, got %s %s", first.Number, called.Number, called.Status)
	}
	if called.WaitMs != (2 * time.Minute).Milliseconds() {
		t.Fatalf("wait_ms = %d", called.WaitMs)
	}

	now = now.Add(3 * time.Minute)
	called, err = svc.CallNext(ctx, c1.ID)
	if err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if called.ID != second.ID {
		t.Fatalf("expected %s, got %s", second.Number, called.Number)
	}
	done, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != types.StatusServed || done.ServeMs != (3*time.Minute).Milliseconds() {
		t.Fatalf("previous ticket not closed: %s serve_ms=%d", done.Status, done.ServeMs)
	}

	now = now.Add(time.Minute)
	_, err = svc.CallNext(ctx, c1.ID)
	wantCode(t, err, http.StatusNotFound, "queue_empty")
	last, _ := svc.Get(ctx, second.ID)
	if last.Status != types.StatusServed {
		t.Fatalf("serving ticket should be served even when the line is empty, got %s", last.Status)
	}

	if n := countEvents(h.rec, string(realtime.SSEEventTicketIssued)); n != 2 {
		t.Fatalf("TicketIssued events = %d", n)
	}
	if n := countEvents(h.rec, string(realtime.SSEEventTicketCalled)); n != 2 {
		t.Fatalf("TicketCalled events = %d", n)
	}
	logs, err := h.logs.List(dbctx.Context{Ctx: h.ctx}, b.ID, repos.ActivityLogFilter{EntityType: audit.EntityTicket, EntityID: &first.ID})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected issued/called/served log rows, got %d", len(logs))
	}
}

func TestTicketServiceHospitalJourney(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindHospital)
	triage := testutil.SeedDepartment(t, h.ctx, h.db, b.ID, "Triage", "T", true, false)
	lab := testutil.SeedDepartment(t, h.ctx, h.db, b.ID, "Lab", "L", false, true)
	nurse := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "nurse@clinic.test")
	tech := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "tech@clinic.test")
	cashier := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "cash@clinic.test")
	room1 := testutil.SeedCounter(t, h.ctx, h.db, b.ID, "Room 1", nil, &triage.ID)
	room2 := testutil.SeedCounter(t, h.ctx, h.db, b.ID, "Lab 1", nil, &lab.ID)
	testutil.SeedAssignment(t, h.ctx, h.db, room1, nurse.ID, testDay)
	testutil.SeedAssignment(t, h.ctx, h.db, room2, tech.ID, testDay)

	now := t0
	svc := h.ticketService(&now)

	tk, err := svc.Issue(h.as(nurse), IssueInput{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tk.Number != "T001" || tk.DepartmentID == nil || *tk.DepartmentID != triage.ID {
		t.Fatalf("expected intake ticket, got %+v", tk)
	}

	now = now.Add(time.Minute)
	if _, err := svc.CallNext(h.as(nurse), room1.ID); err != nil {
		t.Fatalf("CallNext triage: %v", err)
	}
	if _, err := svc.CallNext(h.as(nurse), room1.ID); !errors.Is(err, ticket.ErrRoomBusy) {
		t.Fatalf("expected ErrRoomBusy, got %v", err)
	}

	now = now.Add(5 * time.Minute)
	routed, err := svc.NextStep(h.as(nurse), tk.ID, NextStepInput{DepartmentID: lab.ID})
	if err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if routed.Status != types.StatusNotServed || len(routed.DepartmentHistory) != 2 || !routed.AwaitingPayment() {
		t.Fatalf("routing state wrong: status=%s visits=%d", routed.Status, len(routed.DepartmentHistory))
	}
	if _, err := svc.NextStep(h.as(nurse), tk.ID, NextStepInput{DepartmentID: lab.ID}); !errors.Is(err, ticket.ErrInvalidTransition) {
		t.Fatalf("routing a waiting ticket should fail, got %v", err)
	}

	_, err = svc.CallNext(h.as(tech), room2.ID)
	wantCode(t, err, http.StatusNotFound, "queue_empty")

	pending, err := svc.PendingPayments(h.as(cashier))
	if err != nil {
		t.Fatalf("PendingPayments: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tk.ID {
		t.Fatalf("pending payments = %d", len(pending))
	}

	paid, err := svc.ClearPayment(h.as(cashier), tk.ID)
	if err != nil {
		t.Fatalf("ClearPayment: %v", err)
	}
	if v := paid.CurrentVisit(); v == nil || !v.PaymentCleared || v.PaymentClearedBy == nil || *v.PaymentClearedBy != cashier.ID {
		t.Fatalf("payment not recorded: %+v", v)
	}
	if _, err := svc.ClearPayment(h.as(cashier), tk.ID); !errors.Is(err, ticket.ErrPaymentAlreadyCleared) {
		t.Fatalf("expected ErrPaymentAlreadyCleared, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	called, err := svc.CallNext(h.as(tech), room2.ID)
	if err != nil {
		t.Fatalf("CallNext lab: %v", err)
	}
	if called.ID != tk.ID {
		t.Fatalf("expected %s at lab", tk.Number)
	}

	now = now.Add(4 * time.Minute)
	cleared, err := svc.Clear(h.as(tech), tk.ID)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared.Status != types.StatusServed {
		t.Fatalf("cleared status = %s", cleared.Status)
	}
	if cleared.ServeMs != (9 * time.Minute).Milliseconds() {
		t.Fatalf("serve_ms = %d", cleared.ServeMs)
	}
	for i, v := range cleared.DepartmentHistory {
		if !v.Completed {
			t.Fatalf("visit %d not completed", i)
		}
	}

	for _, ev := range []realtime.SSEEvent{realtime.SSEEventTicketRouted, realtime.SSEEventPaymentCleared, realtime.SSEEventTicketCleared} {
		if countEvents(h.rec, string(ev)) != 1 {
			t.Fatalf("missing %s event: %v", ev, h.rec.Events())
		}
	}
}

func TestTicketServiceStatusAndKindChecks(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	cash := testutil.SeedQueue(t, h.ctx, h.db, b.ID, "Cash", "A")
	loans := testutil.SeedQueue(t, h.ctx, h.db, b.ID, "Loans", "L")
	teller := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "teller@bank.test")
	other := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "other@bank.test")
	c1 := testutil.SeedCounter(t, h.ctx, h.db, b.ID, "Counter 1", &cash.ID, nil)
	testutil.SeedAssignment(t, h.ctx, h.db, c1, teller.ID, testDay)

	now := t0
	svc := h.ticketService(&now)
	ctx := h.as(teller)

	tk, err := svc.Issue(ctx, IssueInput{QueueID: &cash.ID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, tk.ID, StatusInput{Status: "served"}); !errors.Is(err, ticket.ErrInvalidTransition) {
		t.Fatalf("not_served -> served should be rejected, got %v", err)
	}
	_, err = svc.UpdateStatus(ctx, tk.ID, StatusInput{Status: "serving"})
	wantCode(t, err, http.StatusBadRequest, "missing_counter")
	_, err = svc.UpdateStatus(h.as(other), tk.ID, StatusInput{Status: "serving", CounterID: &c1.ID})
	wantCode(t, err, http.StatusForbidden, "not_assigned")

	now = now.Add(time.Minute)
	if _, err := svc.UpdateStatus(ctx, tk.ID, StatusInput{Status: "Serving", CounterID: &c1.ID}); err != nil {
		t.Fatalf("serve: %v", err)
	}
	now = now.Add(time.Minute)
	held, err := svc.UpdateStatus(ctx, tk.ID, StatusInput{Status: "Hold"})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	now = now.Add(30 * time.Second)
	resumed, err := svc.UpdateStatus(ctx, tk.ID, StatusInput{Status: "serving"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.HoldMs != 30_000 || resumed.ServeMs != held.ServeMs {
		t.Fatalf("durations wrong: hold=%d serve=%d", resumed.HoldMs, resumed.ServeMs)
	}

	recalled, err := svc.Recall(ctx, tk.ID)
	if err != nil || recalled.RecallCount != 1 {
		t.Fatalf("Recall: %v count=%d", err, recalled.RecallCount)
	}

	moved, err := svc.Transfer(ctx, tk.ID, TransferInput{QueueID: loans.ID})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if moved.Status != types.StatusNotServed || *moved.QueueID != loans.ID || moved.CounterID != nil {
		t.Fatalf("transfer state wrong: %+v", moved)
	}

	_, err = svc.Clear(ctx, tk.ID)
	wantCode(t, err, http.StatusBadRequest, "wrong_branch_kind")
	_, err = svc.Issue(ctx, IssueInput{})
	wantCode(t, err, http.StatusBadRequest, "missing_queue")
	missing := uuid.New()
	_, err = svc.Get(ctx, missing)
	wantCode(t, err, http.StatusNotFound, "ticket_not_found")
}

func TestTicketServiceIssueValidatesMenu(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	q := testutil.SeedQueue(t, h.ctx, h.db, b.ID, "Accounts", "B")
	if err := h.db.Model(q).Update("menu", datatypes.JSONSlice[types.MenuItem]{
		{Name: "Open account", SubItems: []string{"Savings", "Current"}},
		{Name: "Close account"},
	}).Error; err != nil {
		t.Fatalf("set menu: %v", err)
	}
	u := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "kiosk@bank.test")
	now := t0
	svc := h.ticketService(&now)
	ctx := h.as(u)

	if _, err := svc.Issue(ctx, IssueInput{QueueID: &q.ID, Issue: "open account", SubIssue: "savings"}); err != nil {
		t.Fatalf("valid issue rejected: %v", err)
	}
	_, err := svc.Issue(ctx, IssueInput{QueueID: &q.ID, Issue: "Open account", SubIssue: "Brokerage"})
	wantCode(t, err, http.StatusBadRequest, "invalid_issue")
	_, err = svc.Issue(ctx, IssueInput{QueueID: &q.ID, Issue: "Mortgage"})
	wantCode(t, err, http.StatusBadRequest, "invalid_issue")
}

// racyTickets loses the version race a fixed number of times.
type racyTickets struct {
	repos.TicketRepo
	losses int
}

func (r *racyTickets) UpdateVersioned(dbc dbctx.Context, t *types.Ticket) error {
	if r.losses > 0 {
		r.losses--
		return repos.ErrStaleVersion
	}
	return r.TicketRepo.UpdateVersioned(dbc, t)
}

func TestTicketServiceRetriesLostRaces(t *testing.T) {
	h := newHarness(t)
	b := testutil.SeedBranch(t, h.ctx, h.db, types.KindBank)
	q := testutil.SeedQueue(t, h.ctx, h.db, b.ID, "Cash", "A")
	u := testutil.SeedUser(t, h.ctx, h.db, b.ID, nil, "teller@bank.test")
	tk := ticket.NewBank(b.ID, q.ID, testDay, "A001", 1, t0)
	if err := tk.Call(uuid.New(), u.ID, t0.Add(time.Minute)); err != nil {
		t.Fatalf("Call: %v", err)
	}
	testutil.SeedTicket(t, h.ctx, h.db, tk)

	now := t0.Add(2 * time.Minute)
	svc := h.ticketService(&now)
	racy := &racyTickets{TicketRepo: h.tickets, losses: 2}
	svc.ticketRepo = racy

	got, err := svc.Recall(h.as(u), tk.ID)
	if err != nil {
		t.Fatalf("Recall after two lost races: %v", err)
	}
	if got.RecallCount != 1 || got.Version != 1 {
		t.Fatalf("recall applied wrong: count=%d version=%d", got.RecallCount, got.Version)
	}

	racy.losses = defaultTicketWriteAttempts
	before := len(h.rec.Messages)
	_, err = svc.Recall(h.as(u), tk.ID)
	wantCode(t, err, http.StatusConflict, "ticket_conflict")
	if !errors.Is(err, repos.ErrStaleVersion) {
		t.Fatalf("conflict should wrap ErrStaleVersion: %v", err)
	}
	if len(h.rec.Messages) != before {
		t.Fatalf("failed write must not publish")
	}
	stored, _ := h.tickets.GetByID(dbctx.Context{Ctx: h.ctx}, b.ID, tk.ID)
	if stored.RecallCount != 1 {
		t.Fatalf("failed write leaked: recall_count=%d", stored.RecallCount)
	}
}

func TestBoardTicketHidesCustomer(t *testing.T) {
	tk := &types.Ticket{Number: "A001", CustomerName: "Ada", CustomerPhone: "555"}
	if got := boardTicket(tk, false); got.CustomerName != "" || got.CustomerPhone != "" {
		t.Fatalf("customer details leaked: %+v", got)
	}
	if tk.CustomerName != "Ada" {
		t.Fatalf("original ticket modified")
	}
	if got := boardTicket(tk, true); got != tk {
		t.Fatalf("show names should pass the ticket through")
	}
}
