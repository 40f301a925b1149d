package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventTicketIssued        SSEEvent = "TicketIssued"
	SSEEventTicketCalled        SSEEvent = "TicketCalled"
	SSEEventTicketRecalled      SSEEvent = "TicketRecalled"
	SSEEventTicketStatusChanged SSEEvent = "TicketStatusChanged"
	SSEEventTicketTransferred   SSEEvent = "TicketTransferred"
	SSEEventTicketRouted        SSEEvent = "TicketRouted"
	SSEEventTicketCleared       SSEEvent = "TicketCleared"
	SSEEventPaymentCleared      SSEEvent = "PaymentCleared"
	SSEEventCounterAssigned     SSEEvent = "CounterAssigned"
	SSEEventAdsChanged          SSEEvent = "AdsChanged"
	SSEEventEventsChanged       SSEEvent = "EventsChanged"
	SSEEventSettingsChanged     SSEEvent = "SettingsChanged"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// BranchChannel is the stream every board and console of a branch listens on.
func BranchChannel(branchID uuid.UUID) string {
	return fmt.Sprintf("branch:%s", branchID)
}
