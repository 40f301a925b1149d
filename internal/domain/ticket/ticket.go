package ticket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/queueflow-backend/internal/domain/tenant"
)

// Ticket is a customer's (bank) or patient's (hospital) place in line.
//
// All lifecycle changes go through the methods below; callers never write
// Status or the duration fields directly. Version is bumped by the repository
// on every successful update.
type Ticket struct {
	ID                uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID          uuid.UUID                  `gorm:"type:uuid;not null;index:idx_ticket_branch_day,priority:1;column:branch_id" json:"branch_id"`
	Kind              tenant.Kind                `gorm:"not null;column:kind" json:"kind"`
	Day               string                     `gorm:"not null;index:idx_ticket_branch_day,priority:2;column:day" json:"day"`
	Number            string                     `gorm:"not null;column:number" json:"number"`
	Sequence          int                        `gorm:"not null;column:sequence" json:"sequence"`
	QueueID           *uuid.UUID                 `gorm:"type:uuid;index;column:queue_id" json:"queue_id,omitempty"`
	DepartmentID      *uuid.UUID                 `gorm:"type:uuid;index;column:department_id" json:"department_id,omitempty"`
	CounterID         *uuid.UUID                 `gorm:"type:uuid;index;column:counter_id" json:"counter_id,omitempty"`
	ServedBy          *uuid.UUID                 `gorm:"type:uuid;column:served_by" json:"served_by,omitempty"`
	CustomerName      string                     `gorm:"column:customer_name" json:"customer_name,omitempty"`
	CustomerPhone     string                     `gorm:"column:customer_phone" json:"customer_phone,omitempty"`
	Issue             string                     `gorm:"column:issue" json:"issue,omitempty"`
	SubIssue          string                     `gorm:"column:sub_issue" json:"sub_issue,omitempty"`
	Status            Status                     `gorm:"not null;index;column:status" json:"status"`
	QueuedAt          time.Time                  `gorm:"not null;column:queued_at" json:"queued_at"`
	CalledAt          *time.Time                 `gorm:"column:called_at" json:"called_at,omitempty"`
	ServingStartedAt  *time.Time                 `gorm:"column:serving_started_at" json:"serving_started_at,omitempty"`
	HeldAt            *time.Time                 `gorm:"column:held_at" json:"held_at,omitempty"`
	ServedAt          *time.Time                 `gorm:"column:served_at" json:"served_at,omitempty"`
	WaitMs            int64                      `gorm:"not null;default:0;column:wait_ms" json:"wait_ms"`
	ServeMs           int64                      `gorm:"not null;default:0;column:serve_ms" json:"serve_ms"`
	HoldMs            int64                      `gorm:"not null;default:0;column:hold_ms" json:"hold_ms"`
	RecallCount       int                        `gorm:"not null;default:0;column:recall_count" json:"recall_count"`
	DepartmentHistory datatypes.JSONSlice[Visit] `gorm:"column:department_history" json:"department_history,omitempty"`
	Version           int                        `gorm:"not null;default:0;column:version" json:"version"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

func (Ticket) TableName() string { return "ticket" }

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// FormatNumber renders the display number, e.g. ("A", 7) -> "A007".
func FormatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// NewBank opens a not_served ticket in a bank queue.
func NewBank(branchID, queueID uuid.UUID, day, number string, seq int, now time.Time) *Ticket {
	q := queueID
	return &Ticket{
		BranchID: branchID,
		Kind:     tenant.KindBank,
		Day:      day,
		Number:   number,
		Sequence: seq,
		QueueID:  &q,
		Status:   StatusNotServed,
		QueuedAt: now,
	}
}

// NewHospital opens a not_served ticket whose journey starts at dest.
func NewHospital(branchID uuid.UUID, dest Destination, day, number string, seq int, now time.Time) *Ticket {
	d := dest.DepartmentID
	return &Ticket{
		BranchID:          branchID,
		Kind:              tenant.KindHospital,
		Day:               day,
		Number:            number,
		Sequence:          seq,
		DepartmentID:      &d,
		Status:            StatusNotServed,
		QueuedAt:          now,
		DepartmentHistory: datatypes.JSONSlice[Visit]{newVisit(dest, now)},
	}
}

func newVisit(dest Destination, now time.Time) Visit {
	return Visit{
		DepartmentID:    dest.DepartmentID,
		DepartmentName:  dest.DepartmentName,
		EnteredAt:       now,
		PaymentRequired: dest.PaymentRequired,
	}
}

// mark is the timestamp that opened the current status.
func (t *Ticket) mark() time.Time {
	var p *time.Time
	switch t.Status {
	case StatusNotServed:
		return t.QueuedAt
	case StatusServing:
		p = t.ServingStartedAt
	case StatusHold:
		p = t.HeldAt
	case StatusServed:
		p = t.ServedAt
	}
	if p == nil {
		return t.QueuedAt
	}
	return *p
}

// CurrentVisit returns the last visit of the department history, or nil.
func (t *Ticket) CurrentVisit() *Visit {
	if len(t.DepartmentHistory) == 0 {
		return nil
	}
	return &t.DepartmentHistory[len(t.DepartmentHistory)-1]
}

// Transition moves the ticket to status `to` at `now`, accumulating the time
// spent in the status it leaves.
func (t *Ticket) Transition(to Status, now time.Time) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	mark := t.mark()
	if now.Before(mark) {
		return fmt.Errorf("%w: %s before %s", ErrClockSkew, now.Format(time.RFC3339Nano), mark.Format(time.RFC3339Nano))
	}
	elapsed := now.Sub(mark).Milliseconds()

	switch t.Status {
	case StatusNotServed:
		t.WaitMs += elapsed
	case StatusServing:
		t.ServeMs += elapsed
		if v := t.CurrentVisit(); v != nil {
			v.ServeMs += elapsed
		}
	case StatusHold:
		t.HoldMs += elapsed
	}

	stamp := now
	switch to {
	case StatusServing:
		t.ServingStartedAt = &stamp
		t.HeldAt = nil
		if t.CalledAt == nil {
			t.CalledAt = &stamp
		}
	case StatusHold:
		t.HeldAt = &stamp
	case StatusServed:
		t.ServedAt = &stamp
		if v := t.CurrentVisit(); v != nil && !v.Completed {
			v.Completed = true
			v.CompletedAt = &stamp
		}
	case StatusNotServed:
		t.QueuedAt = stamp
		t.ServingStartedAt = nil
		t.HeldAt = nil
		t.CounterID = nil
		t.ServedBy = nil
	}
	t.Status = to
	return nil
}

// Callable reports whether a counter may pick this ticket up now.
func (t *Ticket) Callable() bool {
	if t.Status != StatusNotServed {
		return false
	}
	if v := t.CurrentVisit(); v != nil && v.awaitingPayment() {
		return false
	}
	return true
}

// Call starts serving the ticket at counterID on behalf of userID.
func (t *Ticket) Call(counterID, userID uuid.UUID, now time.Time) error {
	if v := t.CurrentVisit(); t.Status == StatusNotServed && v != nil && v.awaitingPayment() {
		return ErrPaymentPending
	}
	if err := t.Transition(StatusServing, now); err != nil {
		return err
	}
	c, u, stamp := counterID, userID, now
	t.CounterID = &c
	t.ServedBy = &u
	if v := t.CurrentVisit(); v != nil {
		v.CalledAt = &stamp
		v.RoomID = &c
	}
	return nil
}

// Recall re-announces a ticket that is being served.
func (t *Ticket) Recall() error {
	if t.Status != StatusServing {
		return ErrNotServing
	}
	t.RecallCount++
	return nil
}

// Transfer sends a bank ticket being served (or held) to another queue.
func (t *Ticket) Transfer(queueID uuid.UUID, now time.Time) error {
	if t.Status != StatusServing && t.Status != StatusHold {
		return fmt.Errorf("%w: transfer from %s", ErrInvalidTransition, t.Status)
	}
	if t.QueueID != nil && *t.QueueID == queueID {
		return ErrSameQueue
	}
	if err := t.Transition(StatusNotServed, now); err != nil {
		return err
	}
	q := queueID
	t.QueueID = &q
	return nil
}

// RouteTo completes the current department visit and queues the ticket at dest.
func (t *Ticket) RouteTo(dest Destination, now time.Time) error {
	if t.Status != StatusServing && t.Status != StatusHold {
		return fmt.Errorf("%w: next-step from %s", ErrInvalidTransition, t.Status)
	}
	cur := t.CurrentVisit()
	if cur == nil {
		return ErrNoVisit
	}
	if cur.DepartmentID == dest.DepartmentID {
		return ErrSameDepartment
	}
	if err := t.Transition(StatusNotServed, now); err != nil {
		return err
	}
	stamp := now
	cur = t.CurrentVisit()
	cur.Completed = true
	cur.CompletedAt = &stamp
	t.DepartmentHistory = append(t.DepartmentHistory, newVisit(dest, now))
	d := dest.DepartmentID
	t.DepartmentID = &d
	return nil
}

// Clear ends the patient's journey.
func (t *Ticket) Clear(now time.Time) error {
	if t.Status != StatusServing && t.Status != StatusHold {
		return fmt.Errorf("%w: clear from %s", ErrInvalidTransition, t.Status)
	}
	if t.CurrentVisit() == nil {
		return ErrNoVisit
	}
	return t.Transition(StatusServed, now)
}

// ClearPayment records that the current visit's payment was settled by userID.
func (t *Ticket) ClearPayment(userID uuid.UUID, now time.Time) error {
	v := t.CurrentVisit()
	if v == nil {
		return ErrNoVisit
	}
	if !v.PaymentRequired {
		return ErrPaymentNotRequired
	}
	if v.PaymentCleared {
		return ErrPaymentAlreadyCleared
	}
	u, stamp := userID, now
	v.PaymentCleared = true
	v.PaymentClearedAt = &stamp
	v.PaymentClearedBy = &u
	return nil
}

// AwaitingPayment reports whether the ticket is blocked on an uncleared payment.
func (t *Ticket) AwaitingPayment() bool {
	v := t.CurrentVisit()
	return t.Status == StatusNotServed && v != nil && v.awaitingPayment()
}
