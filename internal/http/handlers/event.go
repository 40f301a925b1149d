package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/http/response"
	"github.com/yungbote/queueflow-backend/internal/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GET /api/events?live=true
func (eh *EventHandler) List(c *gin.Context) {
	list := eh.eventService.List
	if c.Query("live") == "true" {
		list = eh.eventService.Live
	}
	events, err := list(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

func (eh *EventHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	e, err := eh.eventService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"event": e})
}

func (eh *EventHandler) Create(c *gin.Context) {
	var in services.EventInput
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	e, err := eh.eventService.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"event": e})
}

func (eh *EventHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var in services.EventUpdate
	if err := bindJSON(c, &in); err != nil {
		response.Fail(c, err)
		return
	}
	e, err := eh.eventService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"event": e})
}

func (eh *EventHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := eh.eventService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
