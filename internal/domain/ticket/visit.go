package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Visit is one stop of a hospital ticket's journey through departments.
type Visit struct {
	DepartmentID     uuid.UUID  `json:"department_id"`
	DepartmentName   string     `json:"department_name"`
	EnteredAt        time.Time  `json:"entered_at"`
	CalledAt         *time.Time `json:"called_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Completed        bool       `json:"completed"`
	PaymentRequired  bool       `json:"payment_required"`
	PaymentCleared   bool       `json:"payment_cleared"`
	PaymentClearedAt *time.Time `json:"payment_cleared_at,omitempty"`
	PaymentClearedBy *uuid.UUID `json:"payment_cleared_by,omitempty"`
	RoomID           *uuid.UUID `json:"room_id,omitempty"`
	ServeMs          int64      `json:"serve_ms"`
}

// Destination describes the department a ticket is sent to.
type Destination struct {
	DepartmentID    uuid.UUID
	DepartmentName  string
	PaymentRequired bool
}

func (v *Visit) awaitingPayment() bool {
	return v.PaymentRequired && !v.PaymentCleared
}
