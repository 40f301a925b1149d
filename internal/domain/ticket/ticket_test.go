package ticket

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func newBankTicket() *Ticket {
	return NewBank(uuid.New(), uuid.New(), "2026-03-02", FormatNumber("A", 7), 7, t0)
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber("A", 7); got != "A007" {
		t.Fatalf("got %q", got)
	}
	if got := FormatNumber("OPD", 1234); got != "OPD1234" {
		t.Fatalf("got %q", got)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNotServed, StatusServing, true},
		{StatusNotServed, StatusHold, false},
		{StatusNotServed, StatusServed, false},
		{StatusServing, StatusServed, true},
		{StatusServing, StatusHold, true},
		{StatusServing, StatusNotServed, true},
		{StatusServing, StatusServing, false},
		{StatusHold, StatusServing, true},
		{StatusHold, StatusServed, true},
		{StatusHold, StatusNotServed, true},
		{StatusServed, StatusServing, false},
		{StatusServed, StatusNotServed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("%s -> %s: want=%v got=%v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Not Served": StatusNotServed,
		"serving":    StatusServing,
		"Hold":       StatusHold,
		"on-hold":    StatusHold,
		"SERVED":     StatusServed,
	}
	for raw, want := range cases {
		got, ok := ParseStatus(raw)
		if !ok || got != want {
			t.Errorf("%q: want=%s got=%s ok=%v", raw, want, got, ok)
		}
	}
	if _, ok := ParseStatus("done"); ok {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestBankDurationsAccumulate(t *testing.T) {
	tk := newBankTicket()
	counter, user := uuid.New(), uuid.New()

	if err := tk.Call(counter, user, at(5*time.Minute)); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := tk.Transition(StatusHold, at(8*time.Minute)); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := tk.Transition(StatusServing, at(10*time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := tk.Transition(StatusServed, at(11*time.Minute)); err != nil {
		t.Fatalf("served: %v", err)
	}

	if tk.WaitMs != (5 * time.Minute).Milliseconds() {
		t.Fatalf("wait: %d", tk.WaitMs)
	}
	if tk.ServeMs != (4 * time.Minute).Milliseconds() {
		t.Fatalf("serve: %d", tk.ServeMs)
	}
	if tk.HoldMs != (2 * time.Minute).Milliseconds() {
		t.Fatalf("hold: %d", tk.HoldMs)
	}
	if tk.CalledAt == nil || !tk.CalledAt.Equal(at(5*time.Minute)) {
		t.Fatalf("called_at should be first call: %v", tk.CalledAt)
	}
	if tk.CounterID == nil || *tk.CounterID != counter {
		t.Fatalf("counter not recorded")
	}
	if !tk.Status.Terminal() {
		t.Fatalf("served must be terminal")
	}
	if err := tk.Transition(StatusServing, at(12*time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionRejectsClockSkew(t *testing.T) {
	tk := newBankTicket()
	if err := tk.Call(uuid.New(), uuid.New(), at(-time.Second)); !errors.Is(err, ErrClockSkew) {
		t.Fatalf("expected ErrClockSkew, got %v", err)
	}
	if tk.Status != StatusNotServed || tk.WaitMs != 0 {
		t.Fatalf("failed transition must not mutate: %+v", tk)
	}

	_ = tk.Call(uuid.New(), uuid.New(), at(time.Minute))
	if err := tk.Transition(StatusServed, at(30*time.Second)); !errors.Is(err, ErrClockSkew) {
		t.Fatalf("expected ErrClockSkew, got %v", err)
	}
}

func TestTransferRequeues(t *testing.T) {
	tk := newBankTicket()
	other := uuid.New()
	_ = tk.Call(uuid.New(), uuid.New(), at(time.Minute))

	if err := tk.Transfer(*tk.QueueID, at(2*time.Minute)); !errors.Is(err, ErrSameQueue) {
		t.Fatalf("expected ErrSameQueue, got %v", err)
	}
	if err := tk.Transfer(other, at(3*time.Minute)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if tk.Status != StatusNotServed || *tk.QueueID != other || tk.CounterID != nil {
		t.Fatalf("unexpected state after transfer: %+v", tk)
	}
	if !tk.QueuedAt.Equal(at(3 * time.Minute)) {
		t.Fatalf("queued_at not reset")
	}
	if err := tk.Transfer(uuid.New(), at(4*time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRecall(t *testing.T) {
	tk := newBankTicket()
	if err := tk.Recall(); !errors.Is(err, ErrNotServing) {
		t.Fatalf("expected ErrNotServing, got %v", err)
	}
	_ = tk.Call(uuid.New(), uuid.New(), at(time.Minute))
	_ = tk.Recall()
	if tk.RecallCount != 1 {
		t.Fatalf("recall count: %d", tk.RecallCount)
	}
}

func TestHospitalJourney(t *testing.T) {
	triage := Destination{DepartmentID: uuid.New(), DepartmentName: "Triage"}
	pharmacy := Destination{DepartmentID: uuid.New(), DepartmentName: "Pharmacy", PaymentRequired: true}
	room, pharmRoom, nurse, cashier := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tk := NewHospital(uuid.New(), triage, "2026-03-02", "T001", 1, t0)
	if !tk.Callable() {
		t.Fatalf("intake ticket must be callable")
	}
	if err := tk.Call(room, nurse, at(2*time.Minute)); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v := tk.CurrentVisit(); v.RoomID == nil || *v.RoomID != room || v.CalledAt == nil {
		t.Fatalf("visit not stamped: %+v", v)
	}

	if err := tk.RouteTo(triage, at(3*time.Minute)); !errors.Is(err, ErrSameDepartment) {
		t.Fatalf("expected ErrSameDepartment, got %v", err)
	}
	if err := tk.RouteTo(pharmacy, at(6*time.Minute)); err != nil {
		t.Fatalf("RouteTo: %v", err)
	}
	if len(tk.DepartmentHistory) != 2 {
		t.Fatalf("history len: %d", len(tk.DepartmentHistory))
	}
	first := tk.DepartmentHistory[0]
	if !first.Completed || first.CompletedAt == nil || first.ServeMs != (4*time.Minute).Milliseconds() {
		t.Fatalf("first visit not completed: %+v", first)
	}
	if tk.Status != StatusNotServed || *tk.DepartmentID != pharmacy.DepartmentID {
		t.Fatalf("ticket not queued at pharmacy: %+v", tk)
	}

	if tk.Callable() || !tk.AwaitingPayment() {
		t.Fatalf("unpaid pharmacy visit must block calling")
	}
	if err := tk.Call(pharmRoom, nurse, at(7*time.Minute)); !errors.Is(err, ErrPaymentPending) {
		t.Fatalf("expected ErrPaymentPending, got %v", err)
	}
	if err := tk.ClearPayment(cashier, at(8*time.Minute)); err != nil {
		t.Fatalf("ClearPayment: %v", err)
	}
	if err := tk.ClearPayment(cashier, at(8*time.Minute)); !errors.Is(err, ErrPaymentAlreadyCleared) {
		t.Fatalf("expected ErrPaymentAlreadyCleared, got %v", err)
	}
	if v := tk.CurrentVisit(); v.PaymentClearedBy == nil || *v.PaymentClearedBy != cashier {
		t.Fatalf("clearing user not recorded")
	}

	if err := tk.Call(pharmRoom, nurse, at(9*time.Minute)); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := tk.Clear(at(10 * time.Minute)); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tk.Status != StatusServed || !tk.CurrentVisit().Completed {
		t.Fatalf("journey not closed: %+v", tk)
	}
	if tk.WaitMs != (2*time.Minute + 3*time.Minute).Milliseconds() {
		t.Fatalf("wait: %d", tk.WaitMs)
	}
}

func TestClearPaymentNotRequired(t *testing.T) {
	tk := NewHospital(uuid.New(), Destination{DepartmentID: uuid.New()}, "2026-03-02", "T001", 1, t0)
	if err := tk.ClearPayment(uuid.New(), at(time.Minute)); !errors.Is(err, ErrPaymentNotRequired) {
		t.Fatalf("expected ErrPaymentNotRequired, got %v", err)
	}
}

func TestHospitalOpsRequireActiveTicket(t *testing.T) {
	tk := NewHospital(uuid.New(), Destination{DepartmentID: uuid.New()}, "2026-03-02", "T001", 1, t0)
	if err := tk.Clear(at(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("clear from not_served: %v", err)
	}
	if err := tk.RouteTo(Destination{DepartmentID: uuid.New()}, at(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("route from not_served: %v", err)
	}
	bank := newBankTicket()
	_ = bank.Call(uuid.New(), uuid.New(), at(time.Minute))
	if err := bank.RouteTo(Destination{DepartmentID: uuid.New()}, at(2*time.Minute)); !errors.Is(err, ErrNoVisit) {
		t.Fatalf("route bank ticket: %v", err)
	}
}
