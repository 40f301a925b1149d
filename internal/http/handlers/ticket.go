package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type TicketHandler struct {
	ticketService services.TicketService
}

func NewTicketHandler(ticketService services.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// POST /api/tickets
func (th *TicketHandler) Issue(c *gin.Context) {
	var in services.IssueInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	t, err := th.ticketService.Issue(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"ticket": t})
}

// GET /api/tickets?status=&queue_id=&department_id=&counter_id=&day=&limit=&offset=
func (th *TicketHandler) List(c *gin.Context) {
	q := services.TicketQuery{Status: c.Query("status"), Day: c.Query("day")}
	var err error
	if q.QueueID, err = queryUUID(c, "queue_id"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.DepartmentID, err = queryUUID(c, "department_id"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.CounterID, err = queryUUID(c, "counter_id"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		response.Fail(c, err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		response.Fail(c, err)
		return
	}
	tickets, err := th.ticketService.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tickets": tickets})
}

func (th *TicketHandler) Get(c *gin.Context) {
	th.byID(c, th.ticketService.Get)
}

// PUT /api/tickets/:id/status
func (th *TicketHandler) UpdateStatus(c *gin.Context) {
	var in services.StatusInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	th.byID(c, func(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
		return th.ticketService.UpdateStatus(ctx, id, in)
	})
}

// POST /api/tickets/:id/recall
func (th *TicketHandler) Recall(c *gin.Context) {
	th.byID(c, th.ticketService.Recall)
}

// POST /api/tickets/:id/transfer
func (th *TicketHandler) Transfer(c *gin.Context) {
	var in services.TransferInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	th.byID(c, func(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
		return th.ticketService.Transfer(ctx, id, in)
	})
}

// POST /api/tickets/:id/next-step
func (th *TicketHandler) NextStep(c *gin.Context) {
	var in services.NextStepInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	th.byID(c, func(ctx context.Context, id uuid.UUID) (*types.Ticket, error) {
		return th.ticketService.NextStep(ctx, id, in)
	})
}

// POST /api/tickets/:id/clear
func (th *TicketHandler) Clear(c *gin.Context) {
	th.byID(c, th.ticketService.Clear)
}

// POST /api/tickets/:id/clear-payment
func (th *TicketHandler) ClearPayment(c *gin.Context) {
	th.byID(c, th.ticketService.ClearPayment)
}

// GET /api/tickets/pending-payments
func (th *TicketHandler) PendingPayments(c *gin.Context) {
	tickets, err := th.ticketService.PendingPayments(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tickets": tickets})
}

func (th *TicketHandler) byID(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*types.Ticket, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	t, err := op(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ticket": t})
}
