package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type CounterHandler struct {
	counterService services.CounterService
	ticketService  services.TicketService
}

func NewCounterHandler(counterService services.CounterService, ticketService services.TicketService) *CounterHandler {
	return &CounterHandler{counterService: counterService, ticketService: ticketService}
}

func (ch *CounterHandler) List(c *gin.Context) {
	counters, err := ch.counterService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"counters": counters})
}

func (ch *CounterHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	counter, err := ch.counterService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"counter": counter})
}

func (ch *CounterHandler) Create(c *gin.Context) {
	var in services.CounterInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	counter, err := ch.counterService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"counter": counter})
}

func (ch *CounterHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.CounterUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	counter, err := ch.counterService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"counter": counter})
}

func (ch *CounterHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := ch.counterService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/counters/:id/assign
func (ch *CounterHandler) Assign(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.AssignInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	a, err := ch.counterService.Assign(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"assignment": a})
}

// DELETE /api/counters/:id/assign?day=YYYY-MM-DD
func (ch *CounterHandler) Unassign(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := ch.counterService.Unassign(c.Request.Context(), id, c.Query("day")); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/counters/assignments?day=YYYY-MM-DD
func (ch *CounterHandler) Assignments(c *gin.Context) {
	list, err := ch.counterService.Assignments(c.Request.Context(), c.Query("day"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": list})
}

// GET /api/counters/mine
func (ch *CounterHandler) Mine(c *gin.Context) {
	a, err := ch.counterService.Mine(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": a})
}

// POST /api/counters/:id/next
func (ch *CounterHandler) Next(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	t, err := ch.ticketService.CallNext(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ticket": t})
}
